package rangemap

// search walks from n looking for the node whose range contains point:
// below the range goes left, at-or-above the upper bound goes right,
// otherwise it's a match.
func search[V any](n *node[V], point uintptr) *node[V] {
	for n != nil {
		switch n.key.compare(point) {
		case -1:
			n = n.left
		case 1:
			n = n.right
		default:
			return n
		}
	}
	return nil
}
