package handlers

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"kirana-pos/internal/catalog"
	"kirana-pos/internal/reports"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
)

type ReportHandler struct {
	Reports *reports.Service
	Catalog *catalog.Service
}

func NewReportHandler(reportSvc *reports.Service, catalogSvc *catalog.Service) *ReportHandler {
	return &ReportHandler{Reports: reportSvc, Catalog: catalogSvc}
}

// reportWindow resolves ?period=today|week|month|year or ?month=YYYY-MM
// into a [start, end) window. Default is today.
func reportWindow(c *gin.Context) (time.Time, time.Time) {
	now := time.Now()
	if month := c.Query("month"); month != "" {
		return reports.MonthWindow(month, now)
	}
	end := now
	switch c.DefaultQuery("period", "today") {
	case "week":
		return reports.WeekStart(now), end
	case "month":
		return reports.MonthStart(now), end
	case "year":
		return reports.YearStart(now), end
	default:
		return reports.DayStart(now), end
	}
}

// GET /admin/reports/dashboard
//
// The one-call back-office screen: window stats and movers for the chosen
// period, plus fixed-window extras (7-day hourly spread, 8-week trends for
// the top 5 sellers, 30-day profit breakdowns, current-month GST).
// Zero-stock products get deactivated on every load.
func (h *ReportHandler) Dashboard(c *gin.Context) {
	if err := h.Catalog.DeactivateOutOfStock(); err != nil {
		respondError(c, err)
		return
	}
	now := time.Now()
	start, end := reportWindow(c)

	stats, err := h.Reports.SalesStats(start, end)
	if err != nil {
		respondError(c, err)
		return
	}
	top, err := h.Reports.TopSellers(start, end)
	if err != nil {
		respondError(c, err)
		return
	}
	slow, err := h.Reports.SlowMovers(start, end)
	if err != nil {
		respondError(c, err)
		return
	}
	hourly, err := h.Reports.HourlyCounts(now.AddDate(0, 0, -7), now)
	if err != nil {
		respondError(c, err)
		return
	}

	var topIDs []uint
	for i, m := range top {
		if i == 5 {
			break
		}
		topIDs = append(topIDs, m.ProductID)
	}
	trends, weekStarts, err := h.Reports.WeeklyTrends(topIDs, 8, now)
	if err != nil {
		respondError(c, err)
		return
	}

	monthAgo := now.AddDate(0, 0, -30)
	profitByProduct, err := h.Reports.ProfitByProduct(monthAgo, now)
	if err != nil {
		respondError(c, err)
		return
	}
	profitByCategory, err := h.Reports.ProfitByCategory(monthAgo, now)
	if err != nil {
		respondError(c, err)
		return
	}

	gstStart, gstEnd := reports.MonthWindow("", now)
	gstRows, err := h.Reports.GSTRows(gstStart, gstEnd)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"start":              start,
		"end":                end,
		"stats":              stats,
		"top_sellers":        top,
		"slow_movers":        slow,
		"hourly_sales":       hourly,
		"weekly_trends":      trends,
		"week_starts":        weekStarts,
		"profit_by_product":  profitByProduct,
		"profit_by_category": profitByCategory,
		"gst_summary":        gstRows,
	})
}

// GET /admin/reports/profit?by=category
func (h *ReportHandler) Profit(c *gin.Context) {
	start, end := reportWindow(c)
	var (
		rows []reports.ProfitRow
		err  error
	)
	if c.Query("by") == "category" {
		rows, err = h.Reports.ProfitByCategory(start, end)
	} else {
		rows, err = h.Reports.ProfitByProduct(start, end)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

// GET /admin/reports/trends?product_ids=1,2,3&weeks=8
func (h *ReportHandler) WeeklyTrends(c *gin.Context) {
	var ids []uint
	for _, part := range strings.Split(c.Query("product_ids"), ",") {
		if id, err := strconv.Atoi(strings.TrimSpace(part)); err == nil && id > 0 {
			ids = append(ids, uint(id))
		}
	}
	weeks, _ := strconv.Atoi(c.DefaultQuery("weeks", "8"))

	trends, weekStarts, err := h.Reports.WeeklyTrends(ids, weeks, time.Now())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"trends": trends, "week_starts": weekStarts})
}

// GET /admin/reports/valuation
func (h *ReportHandler) Valuation(c *gin.Context) {
	valuation, err := h.Reports.StockValuation()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, valuation)
}

// GET /admin/reports/gst
func (h *ReportHandler) GST(c *gin.Context) {
	start, end := reportWindow(c)
	rows, err := h.Reports.GSTRows(start, end)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"start": start, "end": end, "rows": rows})
}

var gstHeader = []string{"Product", "Tax Rate (%)", "Taxable Value", "GST Amount"}

// GET /admin/reports/gst.csv
func (h *ReportHandler) GSTCSV(c *gin.Context) {
	start, end := reportWindow(c)
	rows, err := h.Reports.GSTRows(start, end)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=gst_report_%s.csv", start.Format("2006-01")))
	w := csv.NewWriter(c.Writer)
	_ = w.Write(gstHeader)
	for _, r := range rows {
		_ = w.Write([]string{
			r.Product,
			fmt.Sprintf("%.2f", r.TaxRate),
			fmt.Sprintf("%.2f", r.TaxableValue),
			fmt.Sprintf("%.2f", r.GSTAmount),
		})
	}
	w.Flush()
}

// GET /admin/reports/gst.xlsx
func (h *ReportHandler) GSTXLSX(c *gin.Context) {
	start, end := reportWindow(c)
	rows, err := h.Reports.GSTRows(start, end)
	if err != nil {
		respondError(c, err)
		return
	}

	f := excelize.NewFile()
	defer f.Close()
	sheet := "GST Report"
	f.SetSheetName("Sheet1", sheet)
	for i, head := range gstHeader {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, head)
	}
	for i, r := range rows {
		f.SetCellValue(sheet, fmt.Sprintf("A%d", i+2), r.Product)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", i+2), r.TaxRate)
		f.SetCellValue(sheet, fmt.Sprintf("C%d", i+2), r.TaxableValue)
		f.SetCellValue(sheet, fmt.Sprintf("D%d", i+2), r.GSTAmount)
	}

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=gst_report_%s.xlsx", start.Format("2006-01")))
	if err := f.Write(c.Writer); err != nil {
		respondError(c, err)
	}
}
