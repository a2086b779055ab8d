package providers

import (
	"fmt"
	"leadsync/internal/locks"
	"leadsync/internal/structures"
)

// NewLockProvider selects the project lock backend. The returned cleanup
// closes the database pool of the postgres backend.
func NewLockProvider(conf *structures.Config, logger Logger) (locks.ProjectLock, func(), error) {
	switch conf.Lock.Backend {
	case "", "memory":
		logger.Infof(TypeApp, "Project lock: in-memory (single instance)")
		return locks.NewMemoryLock(), func() {}, nil
	case "postgres":
		lock, err := locks.NewPostgresLock(conf.Lock.DSN, conf.Lock.LeaseTTL)
		if err != nil {
			return nil, nil, err
		}
		logger.Infof(TypeApp, "Project lock: postgres lease, ttl=%s holder=%s", conf.Lock.LeaseTTL, lock.Holder())
		if conf.Lock.LeaseTTL <= conf.Validation.PollTimeout {
			logger.Warnf(TypeApp, "Lock lease ttl %s does not exceed validation poll timeout %s; a long batch can outlive its lease",
				conf.Lock.LeaseTTL, conf.Validation.PollTimeout)
		}
		return lock, func() {
			if err := lock.Close(); err != nil {
				logger.Errorf(TypeApp, "Closing lock backend: %s", err)
			}
		}, nil
	default:
		return nil, nil, fmt.Errorf("unknown lock backend %q", conf.Lock.Backend)
	}
}
