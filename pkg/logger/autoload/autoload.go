// Package autoload initialises the global logger from LOG_* variables when
// imported for its side effect. The import runs before any .env file is
// exported, so main calls Reload once configuration has been loaded.
package autoload

import (
	"io"
	"os"

	"github.com/kelseyhightower/envconfig"

	logx "github.com/tanpawarit/agentic-query-router/pkg/logger"
)

func init() {
	Reload()
}

// Reload re-reads LOG_* from the process environment.
func Reload() {
	reload(os.Stdout)
}

func reload(w io.Writer) {
	var conf logx.Config
	if err := envconfig.Process("LOG", &conf); err != nil {
		logx.InitWriter(w)
		return
	}
	logx.InitWriter(w, conf)
}
