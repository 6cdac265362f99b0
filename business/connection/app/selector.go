package app

// SelectActive returns primary if it is active and network otherwise.
func SelectActive(primary, network ContextReader) ContextReader {
	if primary.Snapshot().Active {
		return primary
	}
	return network
}
