package registry

import "github.com/rusk-dataflow/rusk/core/processor"

// RequestDetails is the body of POST /processor/create, PATCH
// /processor/start, and PATCH /processor/stop (spec.md §6).
type RequestDetails struct {
	ProcessorName string `json:"processor_name,omitempty"`
	ProcessorID   string `json:"processor_id,omitempty"`
}

// ResponseDetails is returned by Create/Start/Stop/GetStatus.
type ResponseDetails struct {
	ProcessorID string `json:"processor_id"`
	Status      string `json:"status"`
}

// ProcessorConnectionRequest is the body of POST /processor/connect and
// DELETE /processor/disconnect.
type ProcessorConnectionRequest struct {
	SourceProcessorID      string `json:"source_processor_id"`
	DestinationProcessorID string `json:"destination_processor_id"`
}

// ProcessorInfo is returned by GetInfo and embedded in ClusterInfoResponse.
type ProcessorInfo struct {
	ProcessorID           string `json:"processor_id"`
	Status                string `json:"status"`
	PacketsProcessedCount int64  `json:"packets_processed_count"`
}

// ClusterInfoResponse is returned by GET /cluster/get_info.
type ClusterInfoResponse struct {
	ClusterName string          `json:"cluster_name"`
	Processors  []ProcessorInfo `json:"processors"`
}

func toProcessorInfo(info processor.Info) ProcessorInfo {
	return ProcessorInfo{
		ProcessorID:           info.ID.String(),
		Status:                info.Status.String(),
		PacketsProcessedCount: info.PacketsProcessed,
	}
}
