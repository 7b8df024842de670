package download

import (
	"fmt"
	"io"
	"log/slog"
	"time"
)

// ProgressFunc receives the bytes written so far and the expected total,
// which is -1 when the response did not declare a length.
type ProgressFunc func(transferred, total int64)

// progressWriter reports progress at most once per interval, and once
// more when the declared total is reached.
type progressWriter struct {
	w           io.Writer
	logger      *slog.Logger
	fn          ProgressFunc
	interval    time.Duration
	transferred int64
	total       int64
	startTime   time.Time
	lastReport  time.Time
}

func (pw *progressWriter) Write(p []byte) (int, error) {
	n, err := pw.w.Write(p)
	pw.transferred += int64(n)

	switch {
	case pw.total >= 0 && pw.transferred == pw.total:
		pw.report("download complete")
	case time.Since(pw.lastReport) >= pw.interval:
		pw.lastReport = time.Now()
		pw.report("downloading")
	}

	return n, err
}

func (pw *progressWriter) report(msg string) {
	if pw.fn != nil {
		pw.fn(pw.transferred, pw.total)
	}
	if pw.logger == nil {
		return
	}

	elapsed := time.Since(pw.startTime)
	attrs := []any{
		"elapsed", elapsed.Round(time.Millisecond),
		"transferred", pw.transferred,
		"total", pw.total,
		"mbps", fmt.Sprintf("%.2f", float64(pw.transferred)/elapsed.Seconds()/(1024*1024)),
	}
	if pw.total > 0 {
		attrs = append(attrs, "progress", fmt.Sprintf("%.1f%%", float64(pw.transferred)/float64(pw.total)*100))
	}
	pw.logger.Info(msg, attrs...)
}
