package main

import (
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	kongdotenv "github.com/titusjaka/kong-dotenv-go"
	_ "modernc.org/sqlite"

	"github.com/lox/fjordflux/internal/batch"
	"github.com/lox/fjordflux/internal/bulk"
	"github.com/lox/fjordflux/internal/ingest"
	"github.com/lox/fjordflux/internal/models"
	"github.com/lox/fjordflux/internal/qc"
	"github.com/lox/fjordflux/internal/report"
	"github.com/lox/fjordflux/internal/store"
	"github.com/lox/fjordflux/internal/wind"
)

// knownSeasons seeds the campaign metadata: which weather station the
// wind series came from, its anemometer height, and the documented
// atmospheric CH4 reference. fetch-atmos replaces the manual reference
// with the NOAA GML seasonal mean when the network allows.
var knownSeasons = []models.Season{
	{
		Year:              2023,
		Name:              "GreenFjord 2023",
		WeatherStation:    "Narsaq",
		AnemometerHeightM: 6.75,
		AtmCH4PPB:         sql.NullFloat64{Float64: 1986.65, Valid: true},
		AtmCH4Source:      "manual",
	},
	{
		Year:              2024,
		Name:              "GreenFjord 2024",
		WeatherStation:    "Forel",
		AnemometerHeightM: 10.0,
		AtmCH4PPB:         sql.NullFloat64{Float64: 1995.85, Valid: true},
		AtmCH4Source:      "manual",
	},
}

type Globals struct {
	DB            string `help:"Path to SQLite database." default:"data/fjordflux.db" env:"FJORDFLUX_DB"`
	MetricsListen string `help:"Optional address to serve Prometheus metrics on while running." env:"FJORDFLUX_METRICS_LISTEN"`
}

func (g *Globals) openStore() (*store.Store, *sql.DB, error) {
	if dir := filepath.Dir(g.DB); dir != "." && g.DB != ":memory:" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", g.DB)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	db.Exec("PRAGMA journal_mode=WAL")
	db.Exec("PRAGMA busy_timeout=5000")

	st := store.New(db)
	if err := st.Migrate(); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("migrate: %w", err)
	}
	for _, season := range knownSeasons {
		if err := st.UpsertSeason(season); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("seed season %d: %w", season.Year, err)
		}
	}
	return st, db, nil
}

func (g *Globals) serveMetrics() {
	if g.MetricsListen == "" {
		return
	}
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		log.Printf("main: serving metrics on %s", g.MetricsListen)
		if err := http.ListenAndServe(g.MetricsListen, mux); err != nil {
			log.Printf("main: metrics server: %v", err)
		}
	}()
}

type IngestCmd struct {
	Season           int     `help:"Campaign year." required:""`
	Chemistry        string  `help:"Chemistry CSV (semicolon-separated, latin-1)." type:"existingfile"`
	Wind             string  `help:"Weather-station wind CSV." type:"existingfile"`
	WeatherStation   string  `help:"Weather station name, for seasons not seeded."`
	AnemometerHeight float64 `help:"Anemometer height in metres, for seasons not seeded."`
}

func (c *IngestCmd) Run(g *Globals) error {
	if c.Chemistry == "" && c.Wind == "" {
		return fmt.Errorf("nothing to ingest: pass --chemistry and/or --wind")
	}
	st, db, err := g.openStore()
	if err != nil {
		return err
	}
	defer db.Close()
	g.serveMetrics()

	season, err := st.GetSeason(c.Season)
	if err != nil {
		return err
	}
	if season == nil {
		if c.WeatherStation == "" || c.AnemometerHeight == 0 {
			return fmt.Errorf("season %d is not seeded: pass --weather-station and --anemometer-height", c.Season)
		}
		if err := st.UpsertSeason(models.Season{
			Year:              c.Season,
			Name:              fmt.Sprintf("Season %d", c.Season),
			WeatherStation:    c.WeatherStation,
			AnemometerHeightM: c.AnemometerHeight,
		}); err != nil {
			return fmt.Errorf("create season %d: %w", c.Season, err)
		}
	}

	if c.Chemistry != "" {
		f, err := os.Open(c.Chemistry)
		if err != nil {
			return fmt.Errorf("open chemistry file: %w", err)
		}
		samples, err := ingest.ReadChemistry(f, c.Season)
		f.Close()
		if err != nil {
			return fmt.Errorf("read chemistry: %w", err)
		}
		if err := st.ReplaceSamples(c.Season, samples); err != nil {
			return fmt.Errorf("store samples: %w", err)
		}
		log.Printf("main: ingested %d chemistry samples for season %d", len(samples), c.Season)
	}

	if c.Wind != "" {
		f, err := os.Open(c.Wind)
		if err != nil {
			return fmt.Errorf("open wind file: %w", err)
		}
		records, err := ingest.ReadWind(f, c.Season)
		f.Close()
		if err != nil {
			return fmt.Errorf("read wind: %w", err)
		}
		if err := st.ReplaceWindRecords(c.Season, records); err != nil {
			return fmt.Errorf("store wind records: %w", err)
		}
		log.Printf("main: ingested %d wind records for season %d", len(records), c.Season)
	}
	return nil
}

type FetchAtmosCmd struct {
	Year   int     `help:"Campaign year to average over." required:""`
	Site   string  `help:"NOAA GML surface-flask site code." default:"ice"`
	AtmCH4 float64 `help:"Manual atmospheric CH4 reference in ppb; skips the network fetch."`
}

func (c *FetchAtmosCmd) Run(g *Globals) error {
	st, db, err := g.openStore()
	if err != nil {
		return err
	}
	defer db.Close()
	g.serveMetrics()

	if c.AtmCH4 > 0 {
		if err := st.SetSeasonAtmosphere(c.Year, c.AtmCH4, "manual"); err != nil {
			return err
		}
		log.Printf("main: season %d atmospheric CH4 set manually to %.2f ppb", c.Year, c.AtmCH4)
		return nil
	}

	ppb, n, err := ingest.NewAtmosClient().SeasonalMean(c.Site, c.Year)
	if err != nil {
		return fmt.Errorf("fetch %s %d: %w", c.Site, c.Year, err)
	}
	if err := st.SetSeasonAtmosphere(c.Year, ppb, "noaa-gml"); err != nil {
		return err
	}
	log.Printf("main: season %d atmospheric CH4 = %.2f ppb (%s, %d monthly means)", c.Year, ppb, c.Site, n)
	return nil
}

type RunCmd struct {
	Season         int     `help:"Campaign year." required:""`
	Convention     string  `help:"Wind averaging convention." enum:"mean-square,legacy-24h" default:"mean-square"`
	WindowDays     float64 `help:"Centered wind window in days (mean-square only)." default:"30"`
	Alpha          float64 `help:"Wind power-law exponent." default:"0.20"`
	TransferCoeff  float64 `help:"Gas transfer coefficient (cm/hr per m²/s²)." default:"0.251"`
	SchmidtRef     float64 `help:"Schmidt number normalization." default:"660"`
	DepthMax       float64 `help:"Surface-representative depth cutoff in metres." default:"5"`
	SalinityPolicy string  `help:"Missing-salinity handling." enum:"exclude,season-mean" default:"exclude"`
	MinWindRecords int     `help:"Minimum wind records per window." default:"3"`
	AtmCH4         float64 `help:"Override the season's atmospheric CH4 reference in ppb."`
	Out            string  `help:"Directory for output CSVs." default:"results"`
}

func (c *RunCmd) Run(g *Globals) error {
	st, db, err := g.openStore()
	if err != nil {
		return err
	}
	defer db.Close()
	g.serveMetrics()

	season, err := st.GetSeason(c.Season)
	if err != nil {
		return err
	}
	if season == nil {
		return fmt.Errorf("season %d not found: ingest it first", c.Season)
	}
	if c.AtmCH4 > 0 {
		season.AtmCH4PPB = sql.NullFloat64{Float64: c.AtmCH4, Valid: true}
		season.AtmCH4Source = "manual"
	}

	samples, err := st.GetSamples(c.Season)
	if err != nil {
		return err
	}
	windSeries, err := st.GetWindRecords(c.Season)
	if err != nil {
		return err
	}

	policy := qc.DefaultPolicy()
	policy.MaxDepthM = c.DepthMax
	policy.Salinity = qc.SalinityPolicy(c.SalinityPolicy)

	windCfg := wind.DefaultConfig(season.AnemometerHeightM)
	windCfg.Convention = wind.Convention(c.Convention)
	windCfg.WindowDays = c.WindowDays
	windCfg.Alpha = c.Alpha
	windCfg.MinRecords = c.MinWindRecords

	run, err := batch.RunSeason(*season, samples, windSeries, batch.Config{
		Params: bulk.Params{TransferCoeff: c.TransferCoeff, SchmidtRef: c.SchmidtRef},
		Policy: policy,
		Wind:   windCfg,
	})
	if err != nil {
		return err
	}

	if err := st.ReplaceRun(run.Results, run.Exclusions, run.Summary); err != nil {
		return fmt.Errorf("store run: %w", err)
	}
	return writeTables(c.Out, c.Season, c.Convention, run.Results, run.Exclusions, run.Summary)
}

type ReportCmd struct {
	Season     int    `help:"Campaign year." required:""`
	Convention string `help:"Wind averaging convention." enum:"mean-square,legacy-24h" default:"mean-square"`
	Out        string `help:"Directory for output CSVs." default:"results"`
}

func (c *ReportCmd) Run(g *Globals) error {
	st, db, err := g.openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	results, err := st.GetResults(c.Season, c.Convention)
	if err != nil {
		return err
	}
	exclusions, err := st.GetExclusions(c.Season, c.Convention)
	if err != nil {
		return err
	}
	summary, err := st.GetSummary(c.Season, c.Convention)
	if err != nil {
		return err
	}
	if summary == nil {
		return fmt.Errorf("no stored run for season %d convention %s: run it first", c.Season, c.Convention)
	}
	return writeTables(c.Out, c.Season, c.Convention, results, exclusions, *summary)
}

func writeTables(dir string, year int, convention string, results []models.FluxResult, exclusions []models.Exclusion, summary models.SummaryStats) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	write := func(name string, fn func(f *os.File) error) error {
		path := filepath.Join(dir, fmt.Sprintf("%s_%d_%s.csv", name, year, convention))
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create %s: %w", path, err)
		}
		if err := fn(f); err != nil {
			f.Close()
			return fmt.Errorf("write %s: %w", path, err)
		}
		return f.Close()
	}
	if err := write("fluxes", func(f *os.File) error { return report.WriteResults(f, results) }); err != nil {
		return err
	}
	if err := write("exclusions", func(f *os.File) error { return report.WriteExclusions(f, exclusions) }); err != nil {
		return err
	}
	if err := write("summary", func(f *os.File) error { return report.WriteSummary(f, summary) }); err != nil {
		return err
	}
	log.Printf("main: wrote fluxes, exclusions and summary tables to %s", dir)
	return nil
}

type CLI struct {
	Globals

	Ingest     IngestCmd     `cmd:"" help:"Parse a season's chemistry and wind CSVs into the database."`
	FetchAtmos FetchAtmosCmd `cmd:"" name:"fetch-atmos" help:"Fetch the NOAA GML seasonal atmospheric CH4 mean for a season."`
	Run        RunCmd        `cmd:"" help:"Compute air-sea CH4 fluxes for a season and write the output tables."`
	Report     ReportCmd     `cmd:"" help:"Rewrite the output tables for an already-computed run."`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("fjordflux"),
		kong.Description("Air-sea CH4 flux computation for Greenland fjord campaigns."),
		kong.Configuration(kongdotenv.ENVFileReader, ".env"),
		kong.UsageOnError(),
	)
	if err := ctx.Run(&cli.Globals); err != nil {
		log.Fatalf("main: %v", err)
	}
}
