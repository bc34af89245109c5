package datastore

import (
	"sync"

	"github.com/rs/zerolog"
)

// SiteMutexManager hands out one mutex per site id so append-and-evict
// sequences for the same site are serialized across goroutines.
type SiteMutexManager struct {
	mutexes map[int64]*sync.Mutex
	mapLock sync.RWMutex
	logger  zerolog.Logger
}

// NewSiteMutexManager creates a new site mutex manager
func NewSiteMutexManager(logger zerolog.Logger) *SiteMutexManager {
	return &SiteMutexManager{
		mutexes: make(map[int64]*sync.Mutex),
		logger:  logger.With().Str("component", "SiteMutexManager").Logger(),
	}
}

// GetMutex returns the mutex for the specific site id
func (smm *SiteMutexManager) GetMutex(siteID int64) *sync.Mutex {
	smm.mapLock.RLock()
	mutex, exists := smm.mutexes[siteID]
	smm.mapLock.RUnlock()

	if exists {
		return mutex
	}

	smm.mapLock.Lock()
	defer smm.mapLock.Unlock()

	// Double-check after acquiring write lock
	if mutex, exists := smm.mutexes[siteID]; exists {
		return mutex
	}

	mutex = &sync.Mutex{}
	smm.mutexes[siteID] = mutex
	return mutex
}

// Remove drops the mutex for a deleted site
func (smm *SiteMutexManager) Remove(siteID int64) {
	smm.mapLock.Lock()
	defer smm.mapLock.Unlock()
	delete(smm.mutexes, siteID)
}
