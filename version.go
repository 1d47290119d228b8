package lattice

// Version is the library release version. Overridable at link time:
//
//	go build -ldflags "-X github.com/aretw0/lattice.Version=v1.2.3"
var Version = "0.1.0-dev"
