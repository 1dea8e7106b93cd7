package mocks

// Mock generation directives. Run `go generate ./internal/mocks/` to regenerate.

//go:generate go run go.uber.org/mock/mockgen -source=../core/repository.go -destination=mock_repository.go -package=mocks
//go:generate go run go.uber.org/mock/mockgen -source=../core/metrics.go -destination=mock_metrics.go -package=mocks
//go:generate go run go.uber.org/mock/mockgen -source=../core/auth.go -destination=mock_auth.go -package=mocks
