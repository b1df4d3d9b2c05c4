package events

const (
	StreamName   = "FLOCK_EVENTS"
	StreamMaxAge = "720h" // 30 days
)

func SubjectRunQueued(runID string) string    { return "flock.run." + runID + ".queued" }
func SubjectRunStarted(runID string) string   { return "flock.run." + runID + ".started" }
func SubjectRunCompleted(runID string) string { return "flock.run." + runID + ".completed" }
func SubjectRunFailed(runID string) string    { return "flock.run." + runID + ".failed" }

func SubjectAnimalUpserted(animalID string) string { return "flock.animal." + animalID + ".upserted" }

func SubjectCullRecommended(runID string) string { return "flock.cull." + runID + ".recommended" }
