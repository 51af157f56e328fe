package ingest

import (
	"bufio"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jlaffaye/ftp"

	"github.com/lox/fjordflux/internal/metrics"
)

// NOAA GML surface-flask monthly CH4 record. The Storhofdi, Iceland
// record (site code ICE) is the campaign's atmospheric reference.
const (
	gmlHTTPBase = "https://gml.noaa.gov/aftp"
	gmlFTPHost  = "aftp.cmdl.noaa.gov:21"
	gmlPathTmpl = "/data/trace_gases/ch4/flask/surface/txt/ch4_%s_surface-flask_1_ccgg_month.txt"

	DefaultAtmosSite = "ice"
)

type AtmosClient struct {
	client *http.Client
}

func NewAtmosClient() *AtmosClient {
	return &AtmosClient{client: &http.Client{Timeout: 30 * time.Second}}
}

type monthlyMean struct {
	Year  int
	Month time.Month
	PPB   float64
}

// SeasonalMean fetches the site's monthly means and averages the
// June-September values for the given year, returning the mean in ppb
// and the number of monthly values behind it. HTTPS is retried with
// exponential backoff; the GML FTP mirror is the fallback.
func (c *AtmosClient) SeasonalMean(site string, year int) (float64, int, error) {
	path := fmt.Sprintf(gmlPathTmpl, strings.ToLower(site))

	body, err := c.fetchHTTP(gmlHTTPBase + path)
	if err != nil {
		metrics.AtmosFetches.WithLabelValues("http", "error").Inc()
		var ftpErr error
		body, ftpErr = fetchFTP(path)
		if ftpErr != nil {
			metrics.AtmosFetches.WithLabelValues("ftp", "error").Inc()
			return 0, 0, fmt.Errorf("fetch %s monthly record: http: %v; ftp: %w", site, err, ftpErr)
		}
		metrics.AtmosFetches.WithLabelValues("ftp", "ok").Inc()
	} else {
		metrics.AtmosFetches.WithLabelValues("http", "ok").Inc()
	}
	defer body.Close()

	means, err := parseMonthlyMeans(body)
	if err != nil {
		return 0, 0, err
	}

	var sum float64
	n := 0
	for _, m := range means {
		if m.Year == year && m.Month >= summerStartMonth && m.Month <= summerEndMonth {
			sum += m.PPB
			n++
		}
	}
	if n == 0 {
		return 0, 0, fmt.Errorf("no %s monthly means for Jun-Sep %d", site, year)
	}
	return sum / float64(n), n, nil
}

func (c *AtmosClient) fetchHTTP(url string) (io.ReadCloser, error) {
	var body io.ReadCloser
	operation := func() error {
		resp, err := c.client.Get(url)
		if err != nil {
			return err
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			if resp.StatusCode == http.StatusNotFound {
				return backoff.Permanent(fmt.Errorf("fetch %s: status %d", url, resp.StatusCode))
			}
			return fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
		}
		body = resp.Body
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = time.Minute
	if err := backoff.Retry(operation, bo); err != nil {
		return nil, err
	}
	return body, nil
}

func fetchFTP(path string) (io.ReadCloser, error) {
	conn, err := ftp.Dial(gmlFTPHost, ftp.DialWithTimeout(30*time.Second))
	if err != nil {
		return nil, fmt.Errorf("dial gml ftp: %w", err)
	}
	if err := conn.Login("anonymous", "anonymous"); err != nil {
		conn.Quit()
		return nil, fmt.Errorf("ftp login: %w", err)
	}
	resp, err := conn.Retr(path)
	if err != nil {
		conn.Quit()
		return nil, fmt.Errorf("ftp retr %s: %w", path, err)
	}
	return &ftpFile{resp: resp, conn: conn}, nil
}

type ftpFile struct {
	resp *ftp.Response
	conn *ftp.ServerConn
}

func (f *ftpFile) Read(p []byte) (int, error) { return f.resp.Read(p) }

func (f *ftpFile) Close() error {
	err := f.resp.Close()
	f.conn.Quit()
	return err
}

// parseMonthlyMeans reads the GML month-file format: '#' comment
// header, then whitespace-separated "site year month value" rows.
func parseMonthlyMeans(r io.Reader) ([]monthlyMean, error) {
	var means []monthlyMean
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 4 {
			continue
		}
		year, err := strconv.Atoi(fields[1])
		if err != nil {
			continue
		}
		month, err := strconv.Atoi(fields[2])
		if err != nil || month < 1 || month > 12 {
			continue
		}
		ppb, err := strconv.ParseFloat(fields[3], 64)
		if err != nil || ppb <= 0 {
			continue
		}
		means = append(means, monthlyMean{Year: year, Month: time.Month(month), PPB: ppb})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan monthly means: %w", err)
	}
	if len(means) == 0 {
		return nil, fmt.Errorf("no monthly means found in record")
	}
	return means, nil
}
