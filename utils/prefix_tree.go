package utils

// TokenPrefixTree indexes token sequences, a node holding a value ends a stored phrase.
type TokenPrefixTree struct {
	Root *TokenPrefixTreeNode
}

type TokenPrefixTreeNode struct {
	Value    string
	IsEnd    bool
	Children map[string]*TokenPrefixTreeNode
}

func NewTokenPrefixTree() *TokenPrefixTree {
	return &TokenPrefixTree{Root: &TokenPrefixTreeNode{}}
}

// Add stores the phrase, a phrase added twice keeps the first value.
func (pTree *TokenPrefixTree) Add(tokens []string, value string) {
	if len(tokens) == 0 {
		return
	}

	node := pTree.Root
	for _, token := range tokens {
		if node.Children == nil {
			node.Children = make(map[string]*TokenPrefixTreeNode)
		}
		childNode, isOk := node.Children[token]
		if !isOk {
			childNode = &TokenPrefixTreeNode{}
			node.Children[token] = childNode
		}
		node = childNode
	}

	if !node.IsEnd {
		node.IsEnd = true
		node.Value = value
	}
}

// LongestMatch walks tokens from start and returns the length and value of the longest
// stored phrase beginning there, length is 0 when nothing matches.
func (pTree *TokenPrefixTree) LongestMatch(tokens []string, start int) (int, string) {
	node := pTree.Root
	matched, value := 0, ""
	for i := start; i < len(tokens); i++ {
		next, ok := node.Children[tokens[i]]
		if !ok {
			break
		}
		node = next
		if node.IsEnd {
			matched = i - start + 1
			value = node.Value
		}
	}
	return matched, value
}
