package config

// WorkerKeyStruct names the Redis locks that keep periodic jobs single-run
// across server replicas.
type WorkerKeyStruct struct {
	InvoiceSyncLock     string
	GroupActivationLock string
}

var WorkerKey = &WorkerKeyStruct{
	InvoiceSyncLock:     "worker:invoice_sync:lock",
	GroupActivationLock: "worker:group_activation:lock",
}
