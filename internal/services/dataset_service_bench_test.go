package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"olistcli/internal/config"
	"olistcli/internal/exporter"
	"olistcli/internal/shared/testutil"
)

func benchPaths(b *testing.B, rows int) *config.Paths {
	b.Helper()
	paths := config.NewPaths(b.TempDir())
	if err := paths.EnsureDirectories(); err != nil {
		b.Fatal(err)
	}

	data := make([][]string, rows)
	for i := range data {
		data[i] = []string{fmt.Sprintf("c%06d", i), "SP", "Loyal Customers", "412.50"}
	}
	testutil.WriteCSV(b, paths.GetFeaturePath(exporter.CustomerAnalytics),
		[]string{"customer_unique_id", "customer_state", "customer_segment", "monetary"}, data)
	return paths
}

// Cached pages should not touch the disk
func BenchmarkDatasetService_PageCached(b *testing.B) {
	svc := NewDatasetService(benchPaths(b, 50000), time.Hour, nil, quietLogger())
	ctx := context.Background()
	if _, err := svc.Page(ctx, exporter.CustomerAnalytics, DefaultPageLimit, 0); err != nil {
		b.Fatal(err)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		offset := (i * DefaultPageLimit) % 50000
		if _, err := svc.Page(ctx, exporter.CustomerAnalytics, DefaultPageLimit, offset); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkDatasetService_PageParallel(b *testing.B) {
	svc := NewDatasetService(benchPaths(b, 50000), time.Hour, nil, quietLogger())
	ctx := context.Background()

	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if _, err := svc.Page(ctx, exporter.CustomerAnalytics, MaxPageLimit, 0); err != nil {
				b.Error(err)
				return
			}
		}
	})
}

// Cold reads parse the whole CSV every iteration
func BenchmarkDatasetService_PageUncached(b *testing.B) {
	paths := benchPaths(b, 5000)
	ctx := context.Background()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		svc := NewDatasetService(paths, time.Hour, nil, quietLogger())
		if _, err := svc.Page(ctx, exporter.CustomerAnalytics, DefaultPageLimit, 0); err != nil {
			b.Fatal(err)
		}
	}
}
