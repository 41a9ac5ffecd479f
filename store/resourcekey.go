package store

import "fmt"

// ResourceKey builds the stable resourceKey from spec §3.2:
// "{sourceType}:{sourceId}:{lang}:{chunkIndex}".
func ResourceKey(sourceType, sourceID string, lang string, chunkIndex int) string {
	return fmt.Sprintf("%s:%s:%s:%d", sourceType, sourceID, lang, chunkIndex)
}
