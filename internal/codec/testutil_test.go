package codec

import (
	"time"

	"querylog/pkg/types"
)

var t0 = time.Date(2024, 3, 1, 10, 15, 30, 123456789, time.UTC)

func sampleCreated() *types.QueryCreatedEvent {
	return &types.QueryCreatedEvent{
		CreateTime: types.NewTimestamp(t0),
		Context: types.QueryContext{
			User:              "alice",
			Source:            "cli",
			SessionProperties: map[string]string{"z_prop": "1", "a_prop": "2", "m_prop": "3"},
			ServerAddress:     "10.0.0.1",
			ServerVersion:     "432",
			Environment:       "test",
		},
		Metadata: types.QueryMetadata{
			QueryID:    "20240301_101530_00001_abcde",
			Query:      "SELECT 1",
			QueryState: "QUEUED",
			URI:        "http://coordinator:8080/v1/query/20240301_101530_00001_abcde",
		},
	}
}

func sampleCompleted() *types.QueryCompletedEvent {
	rows := int64(10)
	return &types.QueryCompletedEvent{
		Metadata: types.QueryMetadata{
			QueryID:    "20240301_101530_00001_abcde",
			Query:      "SELECT 1",
			QueryState: "FAILED",
			URI:        "http://coordinator:8080/v1/query/20240301_101530_00001_abcde",
			Tables:     []types.TableInfo{{Catalog: "hive", Schema: "web", Table: "clicks", Columns: []string{"ts", "url"}, DirectlyReferenced: true}},
		},
		Statistics: types.QueryStatistics{
			CPUTime:          types.Duration(1500 * time.Millisecond),
			WallTime:         types.Duration(2*time.Minute + 3*time.Second + 7),
			QueuedTime:       types.Duration(0),
			PlanningTime:     types.DurationPtr(42 * time.Millisecond),
			TotalRows:        10,
			CumulativeMemory: 1234.5,
			CompletedSplits:  3,
			Complete:         true,
		},
		Context: sampleCreated().Context,
		IOMetadata: types.QueryIOMetadata{
			Inputs: []types.QueryInputMetadata{{CatalogName: "hive", Schema: "web", Table: "clicks", PhysicalInputRows: &rows}},
		},
		FailureInfo: &types.QueryFailureInfo{
			ErrorCode:      types.ErrorCode{Code: 1, Name: "GENERIC_USER_ERROR", Type: "USER_ERROR"},
			FailureMessage: "boom",
		},
		Warnings:           []types.Warning{{Code: types.WarningCode{Code: 7, Name: "DEPRECATED"}, Message: "old syntax"}},
		CreateTime:         types.NewTimestamp(t0),
		ExecutionStartTime: types.TimestampPtr(t0.Add(time.Second)),
		EndTime:            types.NewTimestamp(t0.Add(2*time.Minute + 4*time.Second)),
	}
}

func sampleSplit() *types.SplitCompletedEvent {
	return &types.SplitCompletedEvent{
		QueryID:     "20240301_101530_00001_abcde",
		StageID:     "20240301_101530_00001_abcde.1",
		TaskID:      "20240301_101530_00001_abcde.1.0.0",
		CatalogName: "hive",
		CreateTime:  types.NewTimestamp(t0),
		StartTime:   types.TimestampPtr(t0.Add(5 * time.Millisecond)),
		EndTime:     types.TimestampPtr(t0.Add(900 * time.Millisecond)),
		Statistics: types.SplitStatistics{
			CPUTime:            types.Duration(3 * time.Millisecond),
			WallTime:           types.Duration(895 * time.Millisecond),
			CompletedPositions: 1000,
			TimeToFirstByte:    types.DurationPtr(time.Microsecond),
		},
	}
}
