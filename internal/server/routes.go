package server

// setupRoutes binds the handler surface: store reads, the dry-run
// check, and the event stream.
func (s *Server) setupRoutes() {
	r := s.router

	r.Get("/health", s.getHealth)
	r.Get("/metrics", s.getMetrics)
	r.Get("/decisions", s.listDecisions)
	r.Get("/queues", s.getQueues)
	r.Get("/audit", s.getAudit)

	r.Post("/check", s.checkCall)

	r.Get("/events", s.streamEvents)
}
