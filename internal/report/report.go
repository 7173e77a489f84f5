// Package report верстка PDF-отчета по качеству воздуха.
// Координаты в пунктах страницы A4, как в клиентском экспорте.
package report

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"smartcity-air/internal/models"
	"smartcity-air/internal/scenario"
)

// Разметка страницы
const (
	marginX     = 40.0
	contentW    = 515.0
	lineHeight  = 14.0
	alertsTop   = 555.0
	pageTop     = 60.0
	pageBreakY  = 760.0
	footerY     = 780.0
	alertGap    = 6.0
	firstPageMx = 6
)

const footerNote = "Note : rapport généré à partir de données simulées (mode démo). Les données réelles seront branchées via API."

// Params параметры отображения
type Params struct {
	ZoneID     string
	ZoneLabel  string
	Pollutant  string
	PeriodDays int
}

// Data все, что попадает в документ
type Data struct {
	Params
	Generated time.Time
	KPIs      scenario.OverviewKPIs
	Spark     []float64
	Threshold float64 // 0 - без линии порога
	Alerts    []models.Alert
}

// Result итог верстки
type Result struct {
	Pages int
	Size  int
}

// NewData собирает данные отчета из снимков генератора
func NewData(p Params, ov scenario.Overview, snap scenario.Snapshot, at time.Time) Data {
	if p.ZoneLabel == "" {
		p.ZoneLabel = scenario.ZoneLabel(p.ZoneID)
	}
	if p.PeriodDays <= 0 {
		p.PeriodDays = 7
	}
	return Data{
		Params:    p,
		Generated: at,
		KPIs:      ov.KPIs,
		Spark:     scenario.SparkSeries(snap),
		Threshold: scenario.ThresholdFor(p.Pollutant),
		Alerts:    ov.Alerts,
	}
}

// Render верстает документ и пишет его в w
func Render(w io.Writer, d Data) (Result, error) {
	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCatalogSort(true)
	pdf.SetCreationDate(d.Generated)
	pdf.SetModificationDate(d.Generated)
	pdf.SetTitle("Rapport Smart City — Qualité de l’air", true)
	pdf.SetCreator("smartcity-air", true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	drawHeader(pdf, tr, d)
	drawMeta(pdf, tr, d)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Text(marginX, 190, tr("Synthèse"))
	drawKPIGrid(pdf, tr, marginX, 205, contentW, 120, kpiItems(d))

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Text(marginX, 355, tr("Tendance (mini-courbe)"))
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(107, 114, 128)
	pdf.Text(marginX, 372, tr("Courbe synthétique (données simulées) — unité : µg/m³"))
	pdf.SetTextColor(0, 0, 0)
	drawSparkline(pdf, marginX, 385, contentW, 120, d.Spark, d.Threshold)

	drawAlerts(pdf, tr, d.Alerts)

	pdf.SetFont("Helvetica", "I", 9)
	pdf.SetTextColor(0, 0, 0)
	wrapText(pdf, tr(footerNote), marginX, footerY, contentW, 12)

	if err := pdf.Error(); err != nil {
		return Result{}, fmt.Errorf("failed to layout report: %w", err)
	}
	cw := &countingWriter{w: w}
	if err := pdf.Output(cw); err != nil {
		return Result{}, fmt.Errorf("failed to write report: %w", err)
	}
	return Result{Pages: pdf.PageCount(), Size: cw.n}, nil
}

// Build верстает документ в память
func Build(d Data) ([]byte, Result, error) {
	var buf bytes.Buffer
	res, err := Render(&buf, d)
	if err != nil {
		return nil, Result{}, err
	}
	return buf.Bytes(), res, nil
}

func drawHeader(pdf *fpdf.Fpdf, tr func(string) string, d Data) {
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Text(marginX, 56, tr("Rapport Smart City — Qualité de l’air"))
	pdf.SetFont("Helvetica", "", 10)
	pdf.Text(marginX, 76, tr("Généré le : "+FrenchDate(d.Generated)))
}

func drawMeta(pdf *fpdf.Fpdf, tr func(string) string, d Data) {
	pdf.SetDrawColor(230, 230, 230)
	pdf.SetFillColor(248, 250, 252)
	pdf.RoundedRect(marginX, 90, contentW, 70, 10, "1234", "FD")

	pdf.SetFont("Helvetica", "B", 10)
	pdf.Text(marginX+14, 112, tr("Paramètres"))
	pdf.SetFont("Helvetica", "", 10)
	pdf.Text(marginX+14, 130, tr("Zone : "+d.ZoneLabel))
	pdf.Text(marginX+200, 130, tr("Polluant : "+d.Pollutant))
	pdf.Text(marginX+14, 148, tr(fmt.Sprintf("Période : %d jour(s)", d.PeriodDays)))
}

type kpiItem struct {
	label, value, hint string
}

func kpiItems(d Data) []kpiItem {
	k := d.KPIs
	return []kpiItem{
		{"AQI actuel", fmt.Sprint(k.AQI), scenario.AQILabel(k.AQI).Label},
		{"Température", fmt.Sprintf("%d°C", k.Temperature), "actuelle"},
		{"Vent", fmt.Sprintf("%d km/h", k.Wind), "moyen"},
		{"Humidité", fmt.Sprintf("%d%%", k.Humidity), "actuelle"},
		{"Capteurs", fmt.Sprintf("%d/%d", k.Sensors.Active, k.Sensors.Total), "actifs"},
		{"Période", fmt.Sprintf("%dj", d.PeriodDays), "sélectionnée"},
	}
}

// drawKPIGrid таблица 2x3
func drawKPIGrid(pdf *fpdf.Fpdf, tr func(string) string, x, y, w, h float64, items []kpiItem) {
	const cols, rows = 3, 2
	cellW := w / cols
	cellH := h / rows

	pdf.SetDrawColor(230, 230, 230)
	pdf.SetFillColor(255, 255, 255)
	pdf.RoundedRect(x, y, w, h, 10, "1234", "FD")

	pdf.SetDrawColor(235, 235, 235)
	for c := 1; c < cols; c++ {
		pdf.Line(x+float64(c)*cellW, y, x+float64(c)*cellW, y+h)
	}
	for r := 1; r < rows; r++ {
		pdf.Line(x, y+float64(r)*cellH, x+w, y+float64(r)*cellH)
	}

	if len(items) > cols*rows {
		items = items[:cols*rows]
	}
	for idx, it := range items {
		cx := x + float64(idx%cols)*cellW
		cy := y + float64(idx/cols)*cellH

		pdf.SetFont("Helvetica", "", 9)
		pdf.SetTextColor(107, 114, 128)
		pdf.Text(cx+12, cy+18, tr(it.label))

		pdf.SetFont("Helvetica", "B", 13)
		pdf.SetTextColor(17, 24, 39)
		pdf.Text(cx+12, cy+40, tr(it.value))

		if it.hint != "" {
			pdf.SetFont("Helvetica", "", 8.5)
			pdf.SetTextColor(107, 114, 128)
			pdf.Text(cx+12, cy+56, tr(it.hint))
		}
	}
	pdf.SetTextColor(0, 0, 0)
}

// drawSparkline ломаная в прямоугольнике, масштаб по min/max данных
func drawSparkline(pdf *fpdf.Fpdf, x, y, w, h float64, data []float64, threshold float64) {
	pdf.SetDrawColor(230, 230, 230)
	pdf.SetFillColor(255, 255, 255)
	pdf.RoundedRect(x, y, w, h, 10, "1234", "FD")
	if len(data) == 0 {
		return
	}

	const pad = 12.0
	ix, iy := x+pad, y+pad
	iw, ih := w-pad*2, h-pad*2

	minV, maxV := data[0], data[0]
	for _, v := range data[1:] {
		minV = math.Min(minV, v)
		maxV = math.Max(maxV, v)
	}
	rng := math.Max(1, maxV-minV)

	toX := func(i int) float64 {
		if len(data) < 2 {
			return ix + iw/2
		}
		return ix + iw*float64(i)/float64(len(data)-1)
	}
	toY := func(v float64) float64 {
		return iy + ih - (v-minV)/rng*ih
	}

	if threshold > 0 {
		ty := toY(math.Max(minV, math.Min(maxV, threshold)))
		pdf.SetDrawColor(239, 68, 68)
		pdf.SetDashPattern([]float64{4, 4}, 0)
		pdf.Line(ix, ty, ix+iw, ty)
		pdf.SetDashPattern([]float64{}, 0)
	}

	pdf.SetDrawColor(235, 235, 235)
	pdf.Line(ix, iy+ih, ix+iw, iy+ih)

	pdf.SetDrawColor(249, 115, 22)
	pdf.SetLineWidth(1.6)
	for i := 0; i < len(data)-1; i++ {
		pdf.Line(toX(i), toY(data[i]), toX(i+1), toY(data[i+1]))
	}

	last := len(data) - 1
	pdf.SetFillColor(249, 115, 22)
	pdf.Circle(toX(last), toY(data[last]), 2.6, "F")

	pdf.SetFont("Helvetica", "", 8.5)
	pdf.SetTextColor(107, 114, 128)
	pdf.Text(ix, y+h-6, fmt.Sprintf("Min: %g", minV))
	pdf.Text(ix+iw-40, y+h-6, fmt.Sprintf("Max: %g", maxV))

	pdf.SetTextColor(0, 0, 0)
	pdf.SetLineWidth(1)
}

// drawAlerts список оповещений. Блок, пересекающий линию разрыва, и
// седьмое оповещение первой страницы переносятся на новую страницу.
func drawAlerts(pdf *fpdf.Fpdf, tr func(string) string, alerts []models.Alert) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Text(marginX, 535, tr("Alertes récentes"))

	y := alertsTop
	if len(alerts) == 0 {
		pdf.SetFont("Helvetica", "", 10)
		pdf.Text(marginX, y, tr("Aucune alerte."))
		return
	}

	onPage := 0
	for _, a := range alerts {
		pdf.SetFont("Helvetica", "", 10)
		head := pdf.SplitText(tr(scenario.AlertLine(a)), contentW)
		var body []string
		if a.Message != "" {
			body = pdf.SplitText(tr(a.Message), contentW-12)
		}
		block := float64(len(head)+len(body))*lineHeight + alertGap

		firstPageFull := pdf.PageNo() == 1 && onPage >= firstPageMx
		if onPage > 0 && (y+block > pageBreakY || firstPageFull) {
			pdf.AddPage()
			y = pageTop
			onPage = 0
		}

		if a.Critical {
			pdf.SetTextColor(190, 18, 60)
		}
		for _, line := range head {
			pdf.Text(marginX, y, line)
			y += lineHeight
		}
		pdf.SetTextColor(107, 114, 128)
		pdf.SetFont("Helvetica", "", 9)
		for _, line := range body {
			pdf.Text(marginX+12, y, line)
			y += lineHeight
		}
		pdf.SetTextColor(0, 0, 0)
		y += alertGap
		onPage++
	}
}

func wrapText(pdf *fpdf.Fpdf, text string, x, y, maxW, lh float64) float64 {
	for _, line := range pdf.SplitText(text, maxW) {
		pdf.Text(x, y, line)
		y += lh
	}
	return y
}

var (
	spaceRe  = regexp.MustCompile(`\s+`)
	unsafeRe = regexp.MustCompile(`[^\w-]`)
)

// SafeFilePart нижний регистр, пробелы в "-", остальное вне [A-Za-z0-9_-] удаляется
func SafeFilePart(s string) string {
	s = spaceRe.ReplaceAllString(strings.ToLower(s), "-")
	return unsafeRe.ReplaceAllString(s, "")
}

// FileName имя файла отчета: rapport_<zone>_<polluant>_<yyyyMMdd_HHmm>.pdf
func FileName(zoneLabel, pollutant string, at time.Time) string {
	return fmt.Sprintf("rapport_%s_%s_%s.pdf", SafeFilePart(zoneLabel), SafeFilePart(pollutant), at.Format("20060102_1504"))
}

var frMonths = [...]string{"janvier", "février", "mars", "avril", "mai", "juin",
	"juillet", "août", "septembre", "octobre", "novembre", "décembre"}

// FrenchDate "19 octobre 2026 à 14:32"
func FrenchDate(t time.Time) string {
	return fmt.Sprintf("%d %s %d à %s", t.Day(), frMonths[t.Month()-1], t.Year(), t.Format("15:04"))
}

type countingWriter struct {
	w io.Writer
	n int
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += n
	return n, err
}
