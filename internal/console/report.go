package console

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"aircombine/internal/analytics/domain/stats"
	masterdata "aircombine/internal/masterdata/domain"
	telemetry "aircombine/internal/telemetry/domain"
)

// ListStations prints the reference station table as aligned columns.
func ListStations(w io.Writer, stations []masterdata.ReferenceStation) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PREFIX\tSITE\tAQS\tARB\tLAT\tLON\tELEVATION_M\tADDRESS")
	for _, s := range stations {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			s.Prefix, s.SiteName, s.AQSNumber, s.ARBNumber,
			strconv.FormatFloat(s.Lat, 'f', -1, 64),
			strconv.FormatFloat(s.Lon, 'f', -1, 64),
			strconv.FormatFloat(s.ElevationM, 'f', -1, 64),
			s.Address,
		)
	}
	return tw.Flush()
}

// PrintStats prints raw and summarized PM2.5 statistics side by side.
func PrintStats(w io.Writer, raw, summary stats.Description) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, telemetry.PM25A.String()+"\tRaw\tSummarized\t")
	fmt.Fprintf(tw, "count\t%d\t%d\t\n", raw.Count, summary.Count)
	rows := []struct {
		name     string
		raw, sum float64
	}{
		{"mean", raw.Mean, summary.Mean},
		{"std", raw.Std, summary.Std},
		{"min", raw.Min, summary.Min},
		{"25%", raw.P25, summary.P25},
		{"50%", raw.P50, summary.P50},
		{"75%", raw.P75, summary.P75},
		{"max", raw.Max, summary.Max},
	}
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%.2f\t%.2f\t\n", r.name, r.raw, r.sum)
	}
	return tw.Flush()
}
