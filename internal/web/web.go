// Package web holds the HTML views and the helpers they are rendered with.
package web

import (
	"embed"         // Templates are compiled into the binary
	"html/template" // HTML views

	"github.com/Rhymond/go-money"   // Currency formatting
	"github.com/gin-gonic/gin"      // Gin web framework
	"github.com/shopspring/decimal" // Money values
)

//go:embed templates/*.html
var files embed.FS

// FuncMap returns the functions available to every view
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"usd": USD,
	}
}

// Templates parses every embedded view. Pages are addressed by file name, e.g. "buy.html".
func Templates() (*template.Template, error) {
	return template.New("").Funcs(FuncMap()).ParseFS(files, "templates/*.html")
}

// Load registers the views on r
func Load(r *gin.Engine) error {
	t, err := Templates()
	if err != nil {
		return err
	}
	r.SetHTMLTemplate(t)
	return nil
}

// USD formats an amount as US dollars, e.g. $1,234.50
func USD(amount decimal.Decimal) string {
	cents := amount.Shift(2).Round(0).IntPart()
	return money.New(cents, money.USD).Display()
}
