package web

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Skufu/HepatoScan/internal/diagnosis"
	"github.com/Skufu/HepatoScan/internal/features"
)

type handler struct {
	service *diagnosis.Service
}

type option struct {
	Value    string
	Text     string
	Selected bool
}

type fieldView struct {
	Name      string
	Label     string
	Range     string
	ShowRange bool
	Binary    bool
	Value     string
	Min       string
	Max       string
	Step      string
	Options   []option
}

type page struct {
	Fields []fieldView
	Result *diagnosis.Result
	Error  string
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// fieldViews renders the widgets. The HTML min/max/step attributes are where
// range enforcement lives.
func fieldViews(v features.Vector) []fieldView {
	fields := features.Fields()
	out := make([]fieldView, len(fields))
	for i, f := range fields {
		fv := fieldView{
			Name:      f.Name,
			Label:     f.Label,
			Range:     f.RangeLabel(),
			ShowRange: f.Kind == features.KindNumeric && f.Name != "age",
			Binary:    f.Kind == features.KindBinary,
			Value:     formatNumber(v[i]),
			Max:       formatNumber(f.Max),
			Step:      formatNumber(f.Step),
		}
		if f.HasMin {
			fv.Min = formatNumber(f.Min)
		}
		if fv.Binary {
			fv.Options = []option{
				{Value: "0", Text: features.SexLabel(0), Selected: v[i] == 0},
				{Value: "1", Text: features.SexLabel(1), Selected: v[i] == 1},
			}
		}
		out[i] = fv
	}
	return out
}

// postedViews renders the widgets with the raw submitted values so a rejected
// form keeps what the user typed.
func postedViews(get func(name string) (string, bool)) []fieldView {
	out := fieldViews(features.Defaults())
	for i := range out {
		raw, ok := get(out[i].Name)
		raw = strings.TrimSpace(raw)
		if !ok || raw == "" {
			continue
		}
		out[i].Value = raw
		for j := range out[i].Options {
			opt := &out[i].Options[j]
			opt.Selected = opt.Value == raw || strings.EqualFold(opt.Text, raw)
		}
	}
	return out
}

// form is the idle state: widgets at their defaults, no result.
func (h *handler) form(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", page{Fields: fieldViews(features.Defaults())})
}

func (h *handler) predictForm(c *gin.Context) {
	v, err := features.FromValues(c.GetPostForm)
	if err != nil {
		c.HTML(http.StatusBadRequest, "index.html", page{
			Fields: postedViews(c.GetPostForm),
			Error:  err.Error(),
		})
		return
	}

	result, err := h.service.Run(v)
	if err != nil {
		log.Printf("prediction failed: %v", err)
		c.HTML(http.StatusInternalServerError, "index.html", page{
			Fields: fieldViews(v),
			Error:  fmt.Sprintf("Prediction failed: %v", err),
		})
		return
	}

	c.HTML(http.StatusOK, "index.html", page{
		Fields: fieldViews(v),
		Result: &result,
	})
}

func (h *handler) fields(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"fields": features.Fields()})
}

func (h *handler) predictJSON(c *gin.Context) {
	var payload map[string]*float64
	if err := c.ShouldBindJSON(&payload); err != nil {
		if isBodyTooLarge(err) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "payload too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	v := features.Defaults()
	fieldErrors := map[string]string{}
	for name, val := range payload {
		i, ok := features.Index(name)
		if !ok {
			fieldErrors[name] = "unknown field"
			continue
		}
		if val == nil {
			continue
		}
		f := features.Fields()[i]
		if !f.Accepts(*val) {
			fieldErrors[name] = fmt.Sprintf("must be within %s", f.RangeLabel())
			continue
		}
		v[i] = *val
	}
	if len(fieldErrors) > 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":  "validation_failed",
			"fields": fieldErrors,
		})
		return
	}

	result, err := h.service.Run(v)
	if err != nil {
		log.Printf("prediction failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "prediction failed", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

// isBodyTooLarge reports whether err came from the body size limit.
func isBodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}
