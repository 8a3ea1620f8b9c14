package chatengine

// hashSelect deterministically picks an index in [0, count) from seed using
// the engine's DJB2 variant. The same seed and count always produce the
// same index — this is what makes BotEnterChat idempotent for an unchanged
// chat name, and BotReplyChat idempotent for an unchanged incoming message.
func hashSelect(seed string, count int) int {
	if count <= 0 {
		return 0
	}
	var hash uint32 = 5381
	for i := 0; i < len(seed); i++ {
		hash = ((hash << 5) + hash) + uint32(seed[i])
	}
	return int(hash % uint32(count))
}
