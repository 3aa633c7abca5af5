package constants

import "os"

const SourceDataset = "maestro-sustain-v2"

const RecordsExt = ".jsonl"

const ManifestName = "manifest.json"

const (
	DefaultWindowSize  = 100
	DefaultPredictSize = 20
	DefaultStride      = 50
)

var DefaultSplits = []string{"train", "validation", "test"}

const (
	RecordsPathEnv    = "RECORDS_PATH"
	CorpusPathEnv     = "CORPUS_PATH"
	MediaPathEnv      = "MEDIA_PATH"
	DynamoEndpointEnv = "DYNAMODB_ENDPOINT"
	DynamoTableEnv    = "DYNAMODB_TABLE"
	DynamoRegionEnv   = "AWS_REGION"
	LogLevelEnv       = "LOG_LEVEL"
)

func getenv(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

// GetRecordsDir is where generated <split>.jsonl files live.
func GetRecordsDir() string {
	return getenv(RecordsPathEnv, "./out")
}

// GetCorpusDir holds the exported corpus, one <split>.jsonl of pieces per split.
func GetCorpusDir() string {
	return getenv(CorpusPathEnv, "./corpus")
}

// GetMediaDir holds MIDI files laid out as <split>/**/*.mid.
func GetMediaDir() string {
	return getenv(MediaPathEnv, "")
}

func GetDynamoEndpoint() string {
	return getenv(DynamoEndpointEnv, "")
}

func GetDynamoTable() string {
	return getenv(DynamoTableEnv, "notewindow-sources")
}

func GetDynamoRegion() string {
	return getenv(DynamoRegionEnv, "localhost")
}

func GetLogLevel() string {
	return getenv(LogLevelEnv, "info")
}
