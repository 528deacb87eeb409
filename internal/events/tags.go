package events

// extractUserIDs walks a message's rich-content block tree and returns
// the user ID of every "user" mention leaf, one entry per occurrence.
//
// A block either carries inline elements (possibly mention leaves) or
// nested sub-blocks under "elements". The walk uses an explicit stack:
// nesting depth is controlled by the sender, so recursion is avoided.
// Discovery order is not meaningful.
func extractUserIDs(blocks []any) []string {
	var ids []string

	stack := make([]any, len(blocks))
	copy(stack, blocks)

	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		block, ok := node.(map[string]any)
		if !ok {
			continue
		}
		if t, _ := block["type"].(string); t == "user" {
			if id, _ := block["user_id"].(string); id != "" {
				ids = append(ids, id)
			}
			continue
		}
		if children, ok := block["elements"].([]any); ok {
			stack = append(stack, children...)
		}
	}
	return ids
}
