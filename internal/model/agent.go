package model

// Agent identifiers known to the system. The extraction coordinator and the
// push agent are the only two invoked directly.
const (
	ExtractionCoordinatorID = "69995e60a4f57aa46126cb9f"
	PushAgentID             = "69995e7372a2e3b0eaab96c7"
	EmailFetcherAgentID     = "69995e49938bc0103dbe0c39"
	DataExtractionAgentID   = "69995e38ceed43b6522c4550"
	ValidationAgentID       = "69995e38c066ed107671ab82"
)

// Agent describes a remote agent for display.
type Agent struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Purpose string `json:"purpose"`
}

// Agents is the registry of remote agents taking part in the pipeline.
var Agents = []Agent{
	{ID: ExtractionCoordinatorID, Name: "CRM Sync Coordinator", Purpose: "Orchestrates email fetching, extraction, and validation pipeline"},
	{ID: PushAgentID, Name: "CRM Entry Agent", Purpose: "Pushes validated contacts and deals to HubSpot"},
	{ID: EmailFetcherAgentID, Name: "Email Fetcher Agent", Purpose: "Fetches emails from Gmail with search filters"},
	{ID: DataExtractionAgentID, Name: "Data Extraction Agent", Purpose: "Parses email content into structured CRM fields"},
	{ID: ValidationAgentID, Name: "Validation Agent", Purpose: "Validates completeness, formatting, and duplicates"},
}

// AgentName resolves an agent id to its display name, or returns the id.
func AgentName(id string) string {
	for _, a := range Agents {
		if a.ID == id {
			return a.Name
		}
	}
	return id
}
