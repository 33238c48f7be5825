package vault

// ActiveVector selects the vector governing the price at the given time:
// among vectors with ValidFrom <= now, the one with the greatest ValidFrom.
// That is the most recently started vector, not necessarily the most
// recently inserted one. The resolver holds no cache; callers re-evaluate it
// on every take, so two takes straddling a PriceFixDuration boundary can
// observe different prices.
func ActiveVector(o *Offer, now uint64) (*Vector, error) {
	if o == nil {
		return nil, ErrOfferNotFound
	}
	best := -1
	for i := range o.Vectors {
		v := &o.Vectors[i]
		if v.ValidFrom > now {
			continue
		}
		if best < 0 || v.ValidFrom > o.Vectors[best].ValidFrom ||
			(v.ValidFrom == o.Vectors[best].ValidFrom && v.SegmentID > o.Vectors[best].SegmentID) {
			best = i
		}
	}
	if best < 0 {
		return nil, ErrNoActiveVector
	}
	vec := o.Vectors[best]
	return &vec, nil
}
