package config

import (
	"fmt"
	"io"
)

// RenderEffective writes the resolved configuration as an annotated summary
// to w. This powers "config show", giving users visibility into the
// effective values after all four override layers have been applied.
func RenderEffective(cfg *Config, path string, w io.Writer) error {
	ew := &errWriter{w: w}

	ew.printf("# Effective configuration (file: %s)\n\n", path)

	ew.printf("# connection\n")
	ew.printf("host                 = %q\n", cfg.Host)
	ew.printf("port                 = %d\n", cfg.Port)
	ew.printf("ssl_enabled          = %t\n", cfg.SSLEnabled)
	ew.printf("ca_cert              = %q\n", cfg.CACert)
	ew.printf("insecure_skip_verify = %t\n", cfg.InsecureSkipVerify)

	ew.printf("\n# auth\n")
	ew.printf("token_path           = %q\n", cfg.TokenPath)
	ew.printf("token_reuse          = %t\n", cfg.TokenReuse)

	ew.printf("\n# network\n")
	ew.printf("connect_timeout      = %q\n", cfg.ConnectTimeout)
	ew.printf("request_timeout      = %q\n", cfg.RequestTimeout)

	ew.printf("\n# logging\n")
	ew.printf("log_level            = %q\n", cfg.LogLevel)
	ew.printf("log_file             = %q\n", cfg.LogFile)
	ew.printf("log_format           = %q\n", cfg.LogFormat)

	ew.printf("\n# records and metering\n")
	ew.printf("database_path        = %q\n", cfg.DatabasePath)
	ew.printf("cache_interval       = %q\n", cfg.CacheInterval)
	ew.printf("cache_enabled        = %t\n", cfg.CacheEnabled)

	return ew.err
}

// errWriter wraps an io.Writer and captures the first write error.
// Subsequent writes after an error are no-ops.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...any) {
	if ew.err != nil {
		return
	}

	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}
