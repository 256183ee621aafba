//go:build governance

package core_test

import (
	"go/types"
	"strings"
	"testing"

	"golang.org/x/tools/go/packages"
)

const modulePath = "github.com/leapstack-labs/querykit"

// =============================================================================
// COHESION TEST - Core types must be used outside core
// =============================================================================

// TestGovernance_CoreCohesion verifies that exported types in pkg/core are
// consumed by at least one other package. Types nobody imports belong in
// the package that uses them, or nowhere.
func TestGovernance_CoreCohesion(t *testing.T) {
	cfg := &packages.Config{
		Mode: packages.NeedName | packages.NeedImports | packages.NeedTypes |
			packages.NeedTypesInfo | packages.NeedDeps,
		Tests: true,
	}
	pkgs, err := packages.Load(cfg, modulePath+"/...")
	if err != nil {
		t.Fatalf("Failed to load packages: %v", err)
	}

	coreDefs := make(map[types.Object]string)
	var corePkg *packages.Package

	for _, p := range pkgs {
		if p.PkgPath == modulePath+"/pkg/core" {
			corePkg = p
			scope := p.Types.Scope()
			for _, name := range scope.Names() {
				obj := scope.Lookup(name)
				if _, ok := obj.(*types.TypeName); ok && obj.Exported() {
					coreDefs[obj] = name
				}
			}
			break
		}
	}

	if corePkg == nil {
		t.Fatal("Could not find pkg/core")
	}

	used := make(map[string]bool)
	for _, p := range pkgs {
		if strings.HasPrefix(p.PkgPath, corePkg.PkgPath) || p.TypesInfo == nil {
			continue
		}
		for _, obj := range p.TypesInfo.Uses {
			if name, ok := coreDefs[obj]; ok {
				used[name] = true
			}
		}
	}

	for _, name := range coreDefs {
		if !used[name] && !isCohesionAllowlisted(name) {
			t.Logf("WARNING: Unused Core Type: %s (consider deleting)", name)
		}
	}
}

// isCohesionAllowlisted returns true for types that exist to complete the
// public model even when no in-repo package names them.
func isCohesionAllowlisted(name string) bool {
	allowlist := map[string]bool{
		"OperatableValue": true, // reached through ValueBase.Next
		"OperatableQuery": true, // reached through QueryBase.Next
	}
	return allowlist[name]
}

// =============================================================================
// PURITY TEST - No type alias re-exports from non-core packages
// =============================================================================

// TestGovernance_NoTypeAliasReexports ensures the parser and formatter don't
// re-export core model types as aliases.
func TestGovernance_NoTypeAliasReexports(t *testing.T) {
	cfg := &packages.Config{
		Mode: packages.NeedName | packages.NeedImports | packages.NeedTypes,
	}
	pkgs, err := packages.Load(cfg, modulePath+"/pkg/...")
	if err != nil {
		t.Fatalf("Failed to load packages: %v", err)
	}

	guarded := map[string]bool{
		modulePath + "/pkg/parser": true,
		modulePath + "/pkg/format": true,
	}

	for _, pkg := range pkgs {
		if len(pkg.Errors) > 0 || !guarded[pkg.PkgPath] {
			continue
		}

		scope := pkg.Types.Scope()
		for _, name := range scope.Names() {
			obj := scope.Lookup(name)
			if !obj.Exported() {
				continue
			}

			typeName, ok := obj.(*types.TypeName)
			if !ok || !typeName.IsAlias() {
				continue
			}
			if named, ok := typeName.Type().(*types.Named); ok && named.Obj().Pkg() != nil &&
				named.Obj().Pkg().Path() == modulePath+"/pkg/core" {
				t.Errorf("PURITY VIOLATION: Package '%s' re-exports type alias '%s'.\n"+
					"   Fix: Remove the alias. Consumers should use core.%s directly.",
					strings.TrimPrefix(pkg.PkgPath, modulePath+"/"), name, named.Obj().Name())
			}
		}
	}
}
