package lineage

import (
	"github.com/TheBitDrifter/table"
	"go.uber.org/zap"
)

// Config holds global configuration for the table system
var Config config = config{}

type config struct {
	tableEvents table.TableEvents
	logger      *zap.Logger
}

// SetTableEvents configures the table event callbacks
func (c *config) SetTableEvents(te table.TableEvents) {
	c.tableEvents = te
}

// SetLogger routes storage and hierarchy diagnostics to l. A nil logger
// silences them again.
func (c *config) SetLogger(l *zap.Logger) {
	c.logger = l
}

// Logger never returns nil.
func (c *config) Logger() *zap.Logger {
	if c.logger == nil {
		return zap.NewNop()
	}
	return c.logger
}
