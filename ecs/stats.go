package ecs

// StorageStats summarizes a Storage for diagnostics.
type StorageStats struct {
	TotalEntityCount int
	ColumnCount      int
	ColumnBreakdown  []ColumnStats
}

// ColumnStats describes the column of one component kind.
type ColumnStats struct {
	Id    ComponentId
	Name  string
	Live  int
	Slots int
}

// CollectStats gathers per-column counts in registration order.
func (s *Storage) CollectStats() StorageStats {
	stats := StorageStats{TotalEntityCount: s.EntityCount()}
	for _, col := range s.columns {
		if col == nil {
			continue
		}
		stats.ColumnCount++
		stats.ColumnBreakdown = append(stats.ColumnBreakdown, ColumnStats{
			Id:    col.kindId(),
			Name:  s.registry.Name(col.kindId()),
			Live:  col.live(),
			Slots: col.slots(),
		})
	}
	return stats
}
