package loadtool

// Generator tuning.
const (
	// participationRate is the share of the population taking part in an event.
	participationRate = 0.8
	// renameRate is the chance a guild changes its name between events.
	renameRate = 0.05
	// seedRate is the share of participants ranked in the seed class.
	seedRate = 0.1
	// missingPointsRate is the chance a row is uploaded without points.
	missingPointsRate = 0.02
	// basePoints is the score of the first regular rank.
	basePoints = 50_000_000
)

// Runner constants.
const (
	WorkerChannelMultiplier = 2
	PercentageMultiplier    = 100
	searchTermMinLen        = 3
)
