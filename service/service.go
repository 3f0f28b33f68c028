package service

// Service is the interface of the long-running parts of the manager.
type Service interface {
	Start() error
	Close() error
}
