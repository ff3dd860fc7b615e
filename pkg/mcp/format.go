package mcp

import (
	"fmt"
	"strings"

	"github.com/pario-ai/memogate/pkg/models"
)

func formatSummary(rows []models.RequestSummary) string {
	if len(rows) == 0 {
		return "No requests found."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%-40s %-8s %8s %12s\n", "Client", "Outcome", "Requests", "Avg Latency")
	b.WriteString(strings.Repeat("-", 71) + "\n")
	for _, r := range rows {
		fmt.Fprintf(&b, "%-40s %-8s %8d %10.1fms\n", r.ClientID, r.Outcome, r.RequestCount, r.AvgLatencyMs)
	}
	return b.String()
}

func formatRecent(recs []models.RequestRecord) string {
	if len(recs) == 0 {
		return "No requests found."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%-20s %-36s %-40s %-8s %10s\n", "Time", "Request ID", "Client", "Outcome", "Latency")
	b.WriteString(strings.Repeat("-", 118) + "\n")
	for _, r := range recs {
		fmt.Fprintf(&b, "%-20s %-36s %-40s %-8s %8dms\n",
			r.CreatedAt.Format("2006-01-02 15:04:05"), r.RequestID, r.ClientID, r.Outcome, r.LatencyMs)
	}
	return b.String()
}

func formatCacheStats(stats models.CacheStats) string {
	return fmt.Sprintf("Cache Statistics\n"+
		"  Entries:   %d/%d\n"+
		"  Hits:      %d\n"+
		"  Misses:    %d\n"+
		"  Evictions: %d\n"+
		"  Hit Rate:  %.1f%%\n"+
		"  TTL:       %ds\n",
		stats.Size, stats.MaxSize, stats.Hits, stats.Misses, stats.Evictions, stats.HitRate*100, stats.TTLSeconds)
}

func formatLimitStatus(st models.LimitStatus) string {
	return fmt.Sprintf("Rate Limit Status for %s\n"+
		"  Next:   %s\n"+
		"  Minute: %d/%d used, %d remaining\n"+
		"  Hour:   %d/%d used, %d remaining\n",
		st.ClientID, st.Reason,
		st.CountShort, st.LimitShort, st.RemainingShort,
		st.CountLong, st.LimitLong, st.RemainingLong)
}
