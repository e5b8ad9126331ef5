package handlers

type ScanRequest struct {
	Username string `json:"username" binding:"required"`
	Mode     string `json:"mode"`
}

type StatusResponse struct {
	SherlockAvailable bool   `json:"sherlock_available"`
	RedditConfigured  bool   `json:"reddit_configured"`
	ScansDir          string `json:"scans_dir"`
}
