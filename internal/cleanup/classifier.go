package cleanup

import "github.com/ibeckermayer/xsweep/internal/types"

// Classify keeps a post only if it retweets an author in preserve. Original
// posts, replies, quotes and retweets whose author could not be resolved are
// all deleted.
func Classify(post types.PostRecord, preserve types.PreserveSet) types.Outcome {
	for _, ref := range post.References {
		if ref.Kind != types.Retweeted {
			continue
		}
		if author, ok := post.RetweetAuthor(ref.TargetID); ok && preserve.Has(author) {
			return types.Preserve
		}
	}
	return types.Delete
}

// Partition splits posts by Classify, keeping their relative order.
func Partition(posts []types.PostRecord, preserve types.PreserveSet) (toDelete, toKeep []types.PostRecord) {
	for _, p := range posts {
		if Classify(p, preserve) == types.Preserve {
			toKeep = append(toKeep, p)
		} else {
			toDelete = append(toDelete, p)
		}
	}
	return toDelete, toKeep
}
