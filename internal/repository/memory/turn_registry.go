package memory

import (
	"time"

	"github.com/patrickmn/go-cache"
)

// TurnRegistry counts completion turns in flight per chat id. Entries expire after the turn
// ceiling so a crashed producer cannot pin a chat forever.
type TurnRegistry struct {
	cache *cache.Cache
}

func NewTurnRegistry(ttl time.Duration) *TurnRegistry {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &TurnRegistry{
		cache: cache.New(ttl, 2*ttl),
	}
}

// Begin registers a turn and returns how many turns are now in flight for the chat, this one included.
func (r *TurnRegistry) Begin(chatId string) int {
	if err := r.cache.Add(chatId, 1, cache.DefaultExpiration); err == nil {
		return 1
	}
	n, err := r.cache.IncrementInt(chatId, 1)
	if err != nil {
		// expired between Add and IncrementInt
		r.cache.Set(chatId, 1, cache.DefaultExpiration)
		return 1
	}
	return n
}

func (r *TurnRegistry) End(chatId string) {
	n, err := r.cache.DecrementInt(chatId, 1)
	if err == nil && n <= 0 {
		r.cache.Delete(chatId)
	}
}

func (r *TurnRegistry) InFlight(chatId string) int {
	if x, found := r.cache.Get(chatId); found {
		return x.(int)
	}
	return 0
}
