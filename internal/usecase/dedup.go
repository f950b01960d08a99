package usecase

import "BeautyBot/internal/domain"

// FilterUnseen returns the candidates whose dedup key is not present in
// history, preserving input order. Candidates without a usable key are
// dropped. Pure function; neither argument is mutated.
func FilterUnseen(candidates []domain.Product, history domain.HistoryRecord) []domain.Product {
	fresh := make([]domain.Product, 0, len(candidates))
	for _, candidate := range candidates {
		key := candidate.DedupKey()
		if key == "" {
			continue
		}
		if history.Contains(key) {
			continue
		}
		fresh = append(fresh, candidate)
	}
	return fresh
}
