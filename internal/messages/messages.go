package messages

import (
	"math"
	"time"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

var (
	msgGenerate = &i18n.Message{
		ID:    "Generate",
		Other: "Generate Winning Numbers",
	}
	msgWait = &i18n.Message{
		ID:    "Wait",
		One:   "Please wait {{.Count}} minute...",
		Other: "Please wait {{.Count}} minutes...",
	}
	msgExportFailed = &i18n.Message{
		ID:    "ExportFailed",
		Other: "Error: Image export is not available.",
	}
)

// Catalog renders the user-facing texts of the widget.
type Catalog struct {
	localizer *i18n.Localizer
}

func NewCatalog(locale string) *Catalog {
	bundle := i18n.NewBundle(language.English)
	bundle.AddMessages(language.English, msgGenerate, msgWait, msgExportFailed)
	return &Catalog{
		localizer: i18n.NewLocalizer(bundle, locale, "en"),
	}
}

// Generate is the label of the enabled trigger control.
func (c *Catalog) Generate() string {
	return c.localize(&i18n.LocalizeConfig{DefaultMessage: msgGenerate})
}

// Wait is the label of the disabled trigger control. Minutes are rounded up.
func (c *Catalog) Wait(remaining time.Duration) string {
	minutes := WaitMinutes(remaining)
	return c.localize(&i18n.LocalizeConfig{
		DefaultMessage: msgWait,
		PluralCount:    minutes,
		TemplateData:   map[string]any{"Count": minutes},
	})
}

func (c *Catalog) ExportFailed() string {
	return c.localize(&i18n.LocalizeConfig{DefaultMessage: msgExportFailed})
}

func (c *Catalog) localize(cfg *i18n.LocalizeConfig) string {
	s, err := c.localizer.Localize(cfg)
	if err != nil {
		// the english default is always present, this only happens on a
		// broken template
		return cfg.DefaultMessage.Other
	}
	return s
}

// WaitMinutes is the number of whole minutes shown for a remaining duration.
func WaitMinutes(remaining time.Duration) int {
	if remaining <= 0 {
		return 0
	}
	return int(math.Ceil(remaining.Minutes()))
}
