// Package reports aggregates job records for the ops dashboards.
package reports

import (
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/fleetops/dispatchd/core/model"
)

// DailyVolume is one day of job creation and outcomes.
type DailyVolume struct {
	Date      string `json:"date"`
	Created   int    `json:"created"`
	Completed int    `json:"completed"`
	Failed    int    `json:"failed"`
	Late      int    `json:"late"`
}

// MonthlyVolume is one month of job creation.
type MonthlyVolume struct {
	Month   string `json:"month"`
	Created int    `json:"created"`
}

// CustomerVolume counts jobs per customer inside the window.
type CustomerVolume struct {
	Customer string `json:"customer"`
	Jobs     int    `json:"jobs"`
}

// Totals summarizes the whole job base.
type Totals struct {
	AllJobs              int      `json:"all_jobs"`
	JobsInWindow         int      `json:"jobs_in_window"`
	OpenJobs             int      `json:"open_jobs"`
	CompletedJobs        int      `json:"completed_jobs"`
	MeanResolutionMins   *float64 `json:"mean_resolution_minutes"`
	MedianResolutionMins *float64 `json:"median_resolution_minutes"`
	P90ResolutionMins    *float64 `json:"p90_resolution_minutes"`
}

// JobsReport is the payload of the jobs report endpoint.
type JobsReport struct {
	WindowDays     int              `json:"window_days"`
	GeneratedAt    string           `json:"generated_at"`
	Totals         Totals           `json:"totals"`
	StatusCounts   map[string]int   `json:"status_counts"`
	PriorityCounts map[string]int   `json:"priority_counts_window"`
	DailyVolume    []DailyVolume    `json:"daily_volume"`
	MonthlyVolume  []MonthlyVolume  `json:"monthly_volume"`
	TopCustomers   []CustomerVolume `json:"top_customers_window"`
}

const topCustomerCount = 8

// Build aggregates jobs into a report. windowDays is clamped to [30, 730].
func Build(jobs []model.Job, now time.Time, windowDays int) JobsReport {
	if windowDays < 30 {
		windowDays = 30
	}
	if windowDays > 730 {
		windowDays = 730
	}
	start := now.AddDate(0, 0, -windowDays)

	statusCounts := map[string]int{}
	priorityCounts := map[string]int{}
	customerCounts := map[string]int{}
	daily := map[string]*DailyVolume{}
	monthly := map[string]int{}

	var resolutions []float64
	inWindow := 0

	for i := range jobs {
		j := &jobs[i]
		statusCounts[string(j.Status)]++
		monthly[j.CreatedAt.UTC().Format("2006-01")]++

		if j.Status == model.JobCompleted || j.Status == model.JobFailed || j.Status == model.JobCancelled {
			mins := j.LastUpdateAt.Sub(j.CreatedAt).Minutes()
			if mins >= 0 {
				resolutions = append(resolutions, mins)
			}
		}

		if j.CreatedAt.Before(start) {
			continue
		}
		inWindow++
		priorityCounts[string(j.Priority)]++
		customerCounts[j.Customer]++
		day := j.CreatedAt.UTC().Format("2006-01-02")
		d, ok := daily[day]
		if !ok {
			d = &DailyVolume{Date: day}
			daily[day] = d
		}
		d.Created++
		switch j.Status {
		case model.JobCompleted:
			d.Completed++
		case model.JobFailed:
			d.Failed++
		case model.JobLate:
			d.Late++
		}
	}

	totals := Totals{
		AllJobs:       len(jobs),
		JobsInWindow:  inWindow,
		CompletedJobs: statusCounts[string(model.JobCompleted)],
	}
	for _, s := range []model.JobStatus{model.JobUnassigned, model.JobAssigned, model.JobInProgress, model.JobLate} {
		totals.OpenJobs += statusCounts[string(s)]
	}
	if len(resolutions) > 0 {
		sort.Float64s(resolutions)
		totals.MeanResolutionMins = round1(stat.Mean(resolutions, nil))
		totals.MedianResolutionMins = round1(stat.Quantile(0.5, stat.Empirical, resolutions, nil))
		totals.P90ResolutionMins = round1(stat.Quantile(0.9, stat.Empirical, resolutions, nil))
	}

	return JobsReport{
		WindowDays:     windowDays,
		GeneratedAt:    now.UTC().Format(time.RFC3339),
		Totals:         totals,
		StatusCounts:   statusCounts,
		PriorityCounts: priorityCounts,
		DailyVolume:    sortedDaily(daily),
		MonthlyVolume:  sortedMonthly(monthly),
		TopCustomers:   topCustomers(customerCounts),
	}
}

func round1(v float64) *float64 {
	r := math.Round(v*10) / 10
	return &r
}

func sortedDaily(m map[string]*DailyVolume) []DailyVolume {
	res := make([]DailyVolume, 0, len(m))
	for _, d := range m {
		res = append(res, *d)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Date < res[j].Date })
	return res
}

func sortedMonthly(m map[string]int) []MonthlyVolume {
	res := make([]MonthlyVolume, 0, len(m))
	for month, n := range m {
		res = append(res, MonthlyVolume{Month: month, Created: n})
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Month < res[j].Month })
	return res
}

func topCustomers(m map[string]int) []CustomerVolume {
	res := make([]CustomerVolume, 0, len(m))
	for c, n := range m {
		res = append(res, CustomerVolume{Customer: c, Jobs: n})
	}
	sort.Slice(res, func(i, j int) bool {
		if res[i].Jobs != res[j].Jobs {
			return res[i].Jobs > res[j].Jobs
		}
		return res[i].Customer < res[j].Customer
	})
	if len(res) > topCustomerCount {
		res = res[:topCustomerCount]
	}
	return res
}
