package mocks

//go:generate mockery --name Journal --srcpkg github.com/aevon-lab/salescube/internal/core/storage --output ./storage --outpkg storagemocks --with-expecter
