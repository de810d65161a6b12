package internal

import (
	"testing"

	"github.com/kcmvp/archunit"
)

func TestArchitecture(t *testing.T) {
	domain := archunit.Packages("domain", []string{".../internal/domain/..."})
	adapters := archunit.Packages("adapters", []string{".../internal/adapters/..."})
	ports := archunit.Packages("ports", []string{".../internal/ports"})

	// Domain should not depend on adapters
	if err := domain.ShouldNotReferLayers(adapters); err != nil {
		t.Errorf("Architecture violation: Domain depends on Adapters: %v", err)
	}

	// Ports only describe contracts
	if err := ports.ShouldNotReferLayers(adapters); err != nil {
		t.Errorf("Architecture violation: Ports depend on Adapters: %v", err)
	}
}

func TestCorePackages(t *testing.T) {
	for _, pkg := range []string{
		".../internal/domain/capability",
		".../internal/domain/entity",
		".../internal/domain/catalog",
	} {
		layer := archunit.Packages(pkg, []string{pkg})
		if len(layer.Packages()) == 0 {
			t.Errorf("package %s not found", pkg)
		}
	}
}
