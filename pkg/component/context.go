package component

// SetContext sets a context value for the component currently rendering.
// The value is visible to it and all of its descendants via GetContext.
// Outside render it does nothing.
func SetContext(key, value any) {
	if owner := CurrentOwner(); owner != nil {
		owner.SetValue(key, value)
	}
}

// GetContext retrieves a context value from the nearest scope that set it.
// Returns nil, false outside render or when no ancestor provides the key.
func GetContext(key any) (any, bool) {
	owner := CurrentOwner()
	if owner == nil {
		return nil, false
	}
	return owner.Value(key)
}
