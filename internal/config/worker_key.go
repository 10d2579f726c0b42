package config

type WorkerKeyStruct struct {
	ImportQueue string
	// ImportProcessing holds ids taken off ImportQueue until their job is recorded.
	ImportProcessing string
}

var WorkerKey = &WorkerKeyStruct{
	ImportQueue:      "import_csv_queue",
	ImportProcessing: "import_csv_processing",
}
