package storage

// Iterate runs fn over every key in [lower, upper) in ascending order,
// stopping early if fn returns false or an error. The iterator is opened
// and closed entirely within this call, matching spec §5's "cursors are
// confined to and closed within the operation that opened them."
func (t *Txn) Iterate(lower, upper []byte, fn func(key, value []byte) (bool, error)) error {
	it, err := t.NewIter(lower, upper)
	if err != nil {
		return err
	}
	defer it.Close()

	for it.First(); it.Valid(); it.Next() {
		cont, err := fn(it.Key(), it.Value())
		if err != nil {
			return err
		}
		if !cont {
			break
		}
	}

	return it.Error()
}
