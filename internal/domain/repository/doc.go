// Package repository define las interfaces de repositorio de dominio.
//
// Estas interfaces representan contratos de negocio, independientes del
// almacenamiento subyacente (PostgreSQL o memoria).
//
// Las implementaciones concretas viven en internal/store/.
package repository
