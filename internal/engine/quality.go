package engine

// QualityBucket is the coarse classification of input sufficiency.
type QualityBucket string

const (
	QualityExcellent QualityBucket = "excellent"
	QualityGood      QualityBucket = "good"
	QualityFair      QualityBucket = "fair"
	QualityPoor      QualityBucket = "poor"
)

// QualityReport is the result of the data-quality assessment.
type QualityReport struct {
	Score  int
	Bucket QualityBucket
}

// assessDataQuality scores the available input context on a 0-100
// scale. More accounts, history, goals and explicit preferences let
// the engine pick richer strategies.
func assessDataQuality(accounts, transactions, goals, preferences int) QualityReport {
	score := 0

	switch {
	case accounts >= 3:
		score += 25
	case accounts >= 2:
		score += 15
	case accounts >= 1:
		score += 10
	}

	switch {
	case transactions >= 100:
		score += 25
	case transactions >= 50:
		score += 20
	case transactions >= 20:
		score += 15
	case transactions >= 5:
		score += 10
	}

	switch {
	case goals >= 3:
		score += 25
	case goals >= 2:
		score += 15
	case goals >= 1:
		score += 10
	}

	if preferences > 0 {
		score += 25
	}

	return QualityReport{Score: score, Bucket: bucketFor(score)}
}

func bucketFor(score int) QualityBucket {
	switch {
	case score >= 80:
		return QualityExcellent
	case score >= 60:
		return QualityGood
	case score >= 40:
		return QualityFair
	default:
		return QualityPoor
	}
}

// selectStrategy picks the generation strategy. The intelligent
// optimizer only runs when explicitly requested and the data supports
// it; with thin data the engine degrades to the conservative fallback.
func selectStrategy(intelligentRequested bool, bucket QualityBucket) Strategy {
	if intelligentRequested && bucket != QualityPoor {
		return StrategyIntelligent
	}

	if bucket == QualityGood || bucket == QualityExcellent {
		return StrategyBasic
	}

	return StrategyFallback
}
