package types

// QueryCreatedEvent is emitted by the host when a query is accepted.
type QueryCreatedEvent struct {
	// Time the query was created.
	// example: 2024-03-01T10:15:30.000000000Z
	CreateTime Timestamp     `json:"createTime"`
	Context    QueryContext  `json:"context"`
	Metadata   QueryMetadata `json:"metadata"`
}

func (*QueryCreatedEvent) EventKind() EventKind { return KindQueryCreated }

// QueryCompletedEvent is emitted once per query when it finishes, whether it
// succeeded or failed.
type QueryCompletedEvent struct {
	Metadata   QueryMetadata   `json:"metadata"`
	Statistics QueryStatistics `json:"statistics"`
	Context    QueryContext    `json:"context"`
	IOMetadata QueryIOMetadata `json:"ioMetadata"`
	// Present only when the query failed.
	FailureInfo *QueryFailureInfo `json:"failureInfo,omitempty"`
	Warnings    []Warning         `json:"warnings,omitempty"`
	CreateTime  Timestamp         `json:"createTime"`
	// Unset when the query failed before execution started.
	ExecutionStartTime *Timestamp `json:"executionStartTime,omitempty"`
	EndTime            Timestamp  `json:"endTime"`
}

func (*QueryCompletedEvent) EventKind() EventKind { return KindQueryCompleted }

// SplitCompletedEvent is emitted for every finished unit of work (split) of a
// query task.
type SplitCompletedEvent struct {
	QueryID     string            `json:"queryId"`
	StageID     string            `json:"stageId"`
	TaskID      string            `json:"taskId"`
	CatalogName string            `json:"catalogName,omitempty"`
	CreateTime  Timestamp         `json:"createTime"`
	StartTime   *Timestamp        `json:"startTime,omitempty"`
	EndTime     *Timestamp        `json:"endTime,omitempty"`
	Statistics  SplitStatistics   `json:"statistics"`
	FailureInfo *SplitFailureInfo `json:"failureInfo,omitempty"`
	// Connector specific payload, already serialized by the host.
	Payload string `json:"payload,omitempty"`
}

func (*SplitCompletedEvent) EventKind() EventKind { return KindSplitCompleted }

// QueryMetadata describes the query itself.
type QueryMetadata struct {
	// example: 20240301_101530_00001_abcde
	QueryID       string `json:"queryId"`
	TransactionID string `json:"transactionId,omitempty"`
	// example: SELECT 1
	Query         string `json:"query"`
	UpdateType    string `json:"updateType,omitempty"`
	PreparedQuery string `json:"preparedQuery,omitempty"`
	// example: FINISHED
	QueryState string `json:"queryState"`
	// example: http://coordinator:8080/v1/query/20240301_101530_00001_abcde
	URI      string      `json:"uri"`
	Plan     string      `json:"plan,omitempty"`
	JSONPlan string      `json:"jsonPlan,omitempty"`
	Tables   []TableInfo `json:"tables,omitempty"`
	Payload  string      `json:"payload,omitempty"`
}

// TableInfo names a table referenced by a query.
type TableInfo struct {
	Catalog            string   `json:"catalog"`
	Schema             string   `json:"schema"`
	Table              string   `json:"table"`
	Authorization      string   `json:"authorization,omitempty"`
	Columns            []string `json:"columns,omitempty"`
	DirectlyReferenced bool     `json:"directlyReferenced"`
}

// QueryContext carries session and client information.
type QueryContext struct {
	// example: alice
	User                string            `json:"user"`
	Principal           string            `json:"principal,omitempty"`
	Groups              []string          `json:"groups,omitempty"`
	RemoteClientAddress string            `json:"remoteClientAddress,omitempty"`
	UserAgent           string            `json:"userAgent,omitempty"`
	ClientInfo          string            `json:"clientInfo,omitempty"`
	ClientTags          []string          `json:"clientTags,omitempty"`
	Source              string            `json:"source,omitempty"`
	Catalog             string            `json:"catalog,omitempty"`
	Schema              string            `json:"schema,omitempty"`
	ResourceGroupID     []string          `json:"resourceGroupId,omitempty"`
	SessionProperties   map[string]string `json:"sessionProperties,omitempty"`
	ServerAddress       string            `json:"serverAddress"`
	ServerVersion       string            `json:"serverVersion"`
	Environment         string            `json:"environment"`
	QueryType           string            `json:"queryType,omitempty"`
	RetryPolicy         string            `json:"retryPolicy,omitempty"`
}

// QueryStatistics are the aggregated execution statistics of a query.
type QueryStatistics struct {
	CPUTime             Duration  `json:"cpuTime"`
	FailedCPUTime       Duration  `json:"failedCpuTime"`
	WallTime            Duration  `json:"wallTime"`
	QueuedTime          Duration  `json:"queuedTime"`
	ScheduledTime       *Duration `json:"scheduledTime,omitempty"`
	ResourceWaitingTime *Duration `json:"resourceWaitingTime,omitempty"`
	AnalysisTime        *Duration `json:"analysisTime,omitempty"`
	PlanningTime        *Duration `json:"planningTime,omitempty"`
	ExecutionTime       *Duration `json:"executionTime,omitempty"`

	PeakUserMemoryBytes  int64 `json:"peakUserMemoryBytes"`
	PeakTotalMemoryBytes int64 `json:"peakTotalNonRevocableMemoryBytes"`
	PeakTaskTotalMemory  int64 `json:"peakTaskTotalMemory"`

	PhysicalInputBytes   int64 `json:"physicalInputBytes"`
	PhysicalInputRows    int64 `json:"physicalInputRows"`
	InternalNetworkBytes int64 `json:"internalNetworkBytes"`
	InternalNetworkRows  int64 `json:"internalNetworkRows"`
	TotalBytes           int64 `json:"totalBytes"`
	TotalRows            int64 `json:"totalRows"`
	OutputBytes          int64 `json:"outputBytes"`
	OutputRows           int64 `json:"outputRows"`
	WrittenBytes         int64 `json:"writtenBytes"`
	WrittenRows          int64 `json:"writtenRows"`

	// Byte-seconds; a float on the host side.
	CumulativeMemory float64 `json:"cumulativeMemory"`
	CompletedSplits  int     `json:"completedSplits"`
	Complete         bool    `json:"complete"`
}

// QueryIOMetadata lists the inputs read and the output written by a query.
type QueryIOMetadata struct {
	Inputs []QueryInputMetadata `json:"inputs,omitempty"`
	Output *QueryOutputMetadata `json:"output,omitempty"`
}

type QueryInputMetadata struct {
	CatalogName        string   `json:"catalogName"`
	Schema             string   `json:"schema"`
	Table              string   `json:"table"`
	Columns            []string `json:"columns,omitempty"`
	PhysicalInputBytes *int64   `json:"physicalInputBytes,omitempty"`
	PhysicalInputRows  *int64   `json:"physicalInputRows,omitempty"`
}

type QueryOutputMetadata struct {
	CatalogName             string `json:"catalogName"`
	Schema                  string `json:"schema"`
	Table                   string `json:"table"`
	JSONLengthLimitExceeded *bool  `json:"jsonLengthLimitExceeded,omitempty"`
}

// QueryFailureInfo describes why a query failed.
type QueryFailureInfo struct {
	ErrorCode      ErrorCode `json:"errorCode"`
	FailureType    string    `json:"failureType,omitempty"`
	FailureMessage string    `json:"failureMessage,omitempty"`
	FailureTask    string    `json:"failureTask,omitempty"`
	FailureHost    string    `json:"failureHost,omitempty"`
	FailuresJSON   string    `json:"failuresJson,omitempty"`
}

// ErrorCode is the host's structured error code.
type ErrorCode struct {
	// example: 1
	Code int `json:"code"`
	// example: GENERIC_USER_ERROR
	Name string `json:"name"`
	// example: USER_ERROR
	Type string `json:"type"`
}

// Warning is a non-fatal diagnostic attached to a completed query.
type Warning struct {
	Code    WarningCode `json:"warningCode"`
	Message string      `json:"message"`
}

type WarningCode struct {
	Code int    `json:"code"`
	Name string `json:"name"`
}

// SplitStatistics are the execution statistics of a single split.
type SplitStatistics struct {
	CPUTime                Duration  `json:"cpuTime"`
	WallTime               Duration  `json:"wallTime"`
	QueuedTime             Duration  `json:"queuedTime"`
	CompletedReadTime      Duration  `json:"completedReadTime"`
	CompletedPositions     int64     `json:"completedPositions"`
	CompletedDataSizeBytes int64     `json:"completedDataSizeBytes"`
	TimeToFirstByte        *Duration `json:"timeToFirstByte,omitempty"`
	TimeToLastByte         *Duration `json:"timeToLastByte,omitempty"`
}

type SplitFailureInfo struct {
	FailureType    string `json:"failureType"`
	FailureMessage string `json:"failureMessage"`
}
