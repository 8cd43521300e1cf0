package mocks

//go:generate mockgen -destination=./mock_datasource.go -package=mocks github.com/rxtech-lab/argo-ta/internal/datasource DataSource
//go:generate mockgen -destination=./mock_indicator.go -package=mocks github.com/rxtech-lab/argo-ta/pkg/indicator Indicator
