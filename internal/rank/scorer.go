package rank

import "jobagg-engine/internal/domain"

type Scorer interface {
	Score(p domain.Posting) (score int, terms []string)
}
