package ingest

import (
	"context"
	"io"
	"net"
	"net/url"
	"os"
	"time"

	"github.com/jlaffaye/ftp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// FTPOptions configure how survey-vendor drops are fetched.
type FTPOptions struct {
	// User and Password default to anonymous access.
	User     string
	Password string
	Timeout  time.Duration
}

// FTPFetcher downloads survey drops over FTP.
type FTPFetcher struct {
	opts FTPOptions
}

// NewFTPFetcher creates a fetcher, filling in anonymous credentials and a
// 30s timeout where options are left empty.
func NewFTPFetcher(opts FTPOptions) *FTPFetcher {
	if opts.User == "" {
		opts.User = "anonymous"
	}
	if opts.Password == "" {
		opts.Password = "anonymous@"
	}
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	return &FTPFetcher{opts: opts}
}

// parseFTPURL extracts host (with port) and path from an FTP URL.
func parseFTPURL(rawURL string) (host string, path string, err error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", "", eris.Wrap(err, "ingest: parse ftp url")
	}
	if u.Scheme != "ftp" {
		return "", "", eris.Errorf("ingest: expected ftp scheme, got %q", u.Scheme)
	}

	host = u.Host
	if _, _, splitErr := net.SplitHostPort(host); splitErr != nil {
		host = net.JoinHostPort(host, "21")
	}

	path = u.Path
	if path == "" {
		return "", "", eris.New("ingest: empty path in ftp url")
	}

	return host, path, nil
}

// ftpConnReader wraps an FTP response and connection so that closing the
// reader also closes the response and disconnects from the server.
type ftpConnReader struct {
	resp *ftp.Response
	conn *ftp.ServerConn
}

func (r *ftpConnReader) Read(p []byte) (int, error) {
	return r.resp.Read(p)
}

func (r *ftpConnReader) Close() error {
	respErr := r.resp.Close()
	quitErr := r.conn.Quit()
	if respErr != nil {
		return eris.Wrap(respErr, "ingest: close ftp response")
	}
	if quitErr != nil {
		return eris.Wrap(quitErr, "ingest: quit ftp connection")
	}
	return nil
}

// Download connects to the FTP server, retrieves the file, and returns a
// reader. The caller must close the returned ReadCloser to release the
// FTP connection.
func (f *FTPFetcher) Download(ctx context.Context, ftpURL string) (io.ReadCloser, error) {
	host, path, err := parseFTPURL(ftpURL)
	if err != nil {
		return nil, err
	}

	zap.L().Debug("ftp: connecting", zap.String("host", host), zap.String("path", path))

	conn, err := ftp.Dial(host, ftp.DialWithTimeout(f.opts.Timeout), ftp.DialWithContext(ctx))
	if err != nil {
		return nil, eris.Wrap(err, "ingest: ftp dial")
	}

	if err := conn.Login(f.opts.User, f.opts.Password); err != nil {
		conn.Quit()
		return nil, eris.Wrap(err, "ingest: ftp login")
	}

	resp, err := conn.Retr(path)
	if err != nil {
		conn.Quit()
		return nil, eris.Wrap(err, "ingest: ftp retrieve")
	}

	return &ftpConnReader{resp: resp, conn: conn}, nil
}

// DownloadToTemp downloads the FTP URL into a temporary file and returns
// its path. The caller removes the file when done with it.
func (f *FTPFetcher) DownloadToTemp(ctx context.Context, ftpURL string) (string, error) {
	rc, err := f.Download(ctx, ftpURL)
	if err != nil {
		return "", err
	}
	defer rc.Close()

	file, err := os.CreateTemp("", "segmentor-drop-*.csv")
	if err != nil {
		return "", eris.Wrap(err, "ingest: create temp file")
	}

	n, err := io.Copy(file, rc)
	if err != nil {
		file.Close()
		os.Remove(file.Name())
		return "", eris.Wrap(err, "ingest: write temp file")
	}
	if err := file.Close(); err != nil {
		os.Remove(file.Name())
		return "", eris.Wrap(err, "ingest: close temp file")
	}

	zap.L().Debug("ftp: downloaded survey drop",
		zap.String("url", ftpURL),
		zap.String("path", file.Name()),
		zap.Int64("bytes", n))

	return file.Name(), nil
}
