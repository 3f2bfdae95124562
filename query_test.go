package lineage

import (
	"testing"

	"github.com/TheBitDrifter/table"
)

// TestQueryFiltering tests the basic query filtering capabilities
func TestQueryFiltering(t *testing.T) {
	// Create components once to reuse
	posComp := FactoryNewComponent[Position]()
	velComp := FactoryNewComponent[Velocity]()
	healthComp := FactoryNewComponent[Health]()

	type entitySetup struct {
		components []Component
		count      int
	}

	tests := []struct {
		name            string
		entitySetups    []entitySetup
		queryType       string // "and", "or", "not", "complex"
		queryComponents []Component
		expectedMatches int
	}{
		{
			name: "And query matches exact",
			entitySetups: []entitySetup{
				{[]Component{posComp, velComp}, 5},
				{[]Component{posComp}, 10},
				{[]Component{velComp}, 15},
			},
			queryType:       "and",
			queryComponents: []Component{posComp, velComp},
			expectedMatches: 5,
		},
		{
			name: "Or query matches either",
			entitySetups: []entitySetup{
				{[]Component{posComp, velComp}, 5},
				{[]Component{posComp}, 10},
				{[]Component{velComp}, 15},
			},
			queryType:       "or",
			queryComponents: []Component{posComp, velComp},
			expectedMatches: 30, // 5 + 10 + 15
		},
		{
			name: "Not query excludes",
			entitySetups: []entitySetup{
				{[]Component{posComp, velComp}, 5},
				{[]Component{posComp}, 10},
				{[]Component{velComp}, 15},
				{[]Component{healthComp}, 20},
			},
			queryType:       "not",
			queryComponents: []Component{velComp},
			expectedMatches: 30, // 10 + 20
		},
		{
			name: "Complex query",
			entitySetups: []entitySetup{
				{[]Component{posComp, velComp, healthComp}, 5},
				{[]Component{posComp, velComp}, 10},
				{[]Component{posComp, healthComp}, 15},
				{[]Component{velComp, healthComp}, 20},
				{[]Component{posComp}, 25},
				{[]Component{velComp}, 30},
				{[]Component{healthComp}, 35},
			},
			queryType:       "complex",
			queryComponents: []Component{posComp, velComp, healthComp},
			expectedMatches: 30, // (P AND V) OR (P AND H) = 10 + 15 + 5 (counted once)
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Setup storage and create entities
			schema := table.Factory.NewSchema()
			storage := Factory.NewStorage(schema)

			for _, setup := range tt.entitySetups {
				_, err := storage.NewEntities(setup.count, setup.components...)
				if err != nil {
					t.Fatalf("Failed to create entities: %v", err)
				}
			}

			// Create query based on test case
			query := Factory.NewQuery()
			var queryNode QueryNode

			switch tt.queryType {
			case "and":
				queryNode = query.And(tt.queryComponents)
			case "or":
				queryNode = query.Or(tt.queryComponents)
			case "not":
				queryNode = query.Not(tt.queryComponents)
			case "complex":
				// (Position AND Velocity) OR (Position AND Health)
				queryNode = query.Or(query.And(posComp, velComp), query.And(posComp, healthComp))
			}

			// Create cursor and count matches
			cursor := Factory.NewCursor(queryNode, storage)
			matchCount := 0
			for cursor.Next() {
				matchCount++
			}

			// Verify match count
			if matchCount != tt.expectedMatches {
				t.Errorf("Query matched %d entities, want %d", matchCount, tt.expectedMatches)
			}
		})
	}
}

// TestQueryWithCursor tests the cursor-based entity iteration
func TestQueryWithCursor(t *testing.T) {
	// Create components once to reuse
	posComp := FactoryNewComponent[Position]()
	velComp := FactoryNewComponent[Velocity]()
	healthComp := FactoryNewComponent[Health]()

	tests := []struct {
		name            string
		entityTypes     [][]Component
		queryComponents []Component
		expectedCount   int
	}{
		{
			name: "Query with position",
			entityTypes: [][]Component{
				{posComp},
				{posComp, velComp},
				{velComp},
			},
			queryComponents: []Component{posComp},
			expectedCount:   20, // 10 + 10
		},
		{
			name: "Query with position and velocity",
			entityTypes: [][]Component{
				{posComp},
				{posComp, velComp},
				{velComp},
			},
			queryComponents: []Component{posComp, velComp},
			expectedCount:   10,
		},
		{
			name: "Query with no matches",
			entityTypes: [][]Component{
				{posComp},
				{velComp},
			},
			queryComponents: []Component{healthComp},
			expectedCount:   0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Setup storage and create entities
			schema := table.Factory.NewSchema()
			storage := Factory.NewStorage(schema)

			for _, componentSet := range tt.entityTypes {
				_, err := storage.NewEntities(10, componentSet...)
				if err != nil {
					t.Fatalf("Failed to create entities: %v", err)
				}
			}

			query := Factory.NewQuery()
			queryNode := query.And(tt.queryComponents)

			// Method 1: Use cursor directly
			cursor := Factory.NewCursor(queryNode, storage)
			count1 := 0
			for cursor.Next() {
				count1++
			}

			// Method 2: Use cursor's TotalMatched
			cursor = Factory.NewCursor(queryNode, storage)
			count2 := cursor.TotalMatched()

			// Verify counts match each other and expected
			if count1 != count2 {
				t.Errorf("Cursor counts inconsistent: %d vs %d", count1, count2)
			}

			if count1 != tt.expectedCount {
				t.Errorf("Query matched %d entities, want %d", count1, tt.expectedCount)
			}
		})
	}
}

// TestQueryComponentAccess tests accessing component data through queries
func TestQueryComponentAccess(t *testing.T) {
	schema := table.Factory.NewSchema()
	storage := Factory.NewStorage(schema)

	posComp := FactoryNewComponent[Position]()
	velComp := FactoryNewComponent[Velocity]()

	for i := 0; i < 10; i++ {
		entities, err := storage.NewEntities(1, posComp)
		if err != nil {
			t.Fatalf("Failed to create entity: %v", err)
		}
		entity := entities[0]

		pos := Position{X: float64(i), Y: float64(i * 2)}
		if err := InsertComponent(storage, entity, posComp, pos); err != nil {
			t.Fatalf("Failed to set position: %v", err)
		}
		vel := Velocity{X: float64(i) * 0.1, Y: float64(i) * 0.2}
		if err := InsertComponent(storage, entity, velComp, vel); err != nil {
			t.Fatalf("Failed to add velocity: %v", err)
		}
	}

	query := Factory.NewQuery()
	queryNode := query.And(posComp, velComp)
	cursor := Factory.NewCursor(queryNode, storage)

	// Integrate once through the cursor
	for cursor.Next() {
		pos := posComp.GetFromCursor(cursor)
		vel := velComp.GetFromCursor(cursor)
		pos.X += vel.X
		pos.Y += vel.Y
	}

	// Read back through the range form
	cursor = Factory.NewCursor(queryNode, storage)
	seen := 0
	for range cursor.Entities() {
		seen++
		pos := posComp.GetFromCursor(cursor)
		vel := velComp.GetFromCursor(cursor)

		// Initial values followed (i, 2i) with velocity (0.1i, 0.2i)
		i := vel.X * 10
		if !almostEqual(pos.X, i+vel.X, 0.0001) || !almostEqual(pos.Y, 2*i+vel.Y, 0.0001) {
			t.Errorf("Position {%v, %v} with velocity {%v, %v} doesn't match expected pattern",
				pos.X, pos.Y, vel.X, vel.Y)
		}

		// The identity column agrees with entity-keyed access
		byEntity, err := posComp.GetFromEntity(storage, cursor.Entity())
		if err != nil || byEntity != pos {
			t.Errorf("GetFromEntity(%v) = %p, %v; cursor gave %p", cursor.Entity(), byEntity, err, pos)
		}
	}
	if seen != 10 {
		t.Errorf("Entities() yielded %d rows, want 10", seen)
	}
	if storage.Locked() {
		t.Errorf("Storage still locked after range iteration")
	}
}

func TestQueryHierarchyComponents(t *testing.T) {
	storage := Factory.NewStorage(table.Factory.NewSchema())
	entities, err := storage.NewEntities(5)
	if err != nil {
		t.Fatalf("Failed to create entities: %v", err)
	}
	root, mid, leafA, leafB, loose := entities[0], entities[1], entities[2], entities[3], entities[4]
	if err := storage.AddChild(root, mid); err != nil {
		t.Fatalf("AddChild failed: %v", err)
	}
	if err := storage.AddChildren(mid, leafA, leafB); err != nil {
		t.Fatalf("AddChildren failed: %v", err)
	}

	query := Factory.NewQuery()
	tests := []struct {
		name string
		node QueryNode
		want int
	}{
		{"Parents", query.And(ChildrenComponent), 2},
		{"Children", query.And(ParentComponent), 3},
		{"Leaves", query.And(ParentComponent, query.Not(ChildrenComponent)), 2},
		{"Inner nodes", query.And(ParentComponent, ChildrenComponent), 1},
		{"Unrelated", query.Not(ParentComponent, ChildrenComponent), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cursor := Factory.NewCursor(tt.node, storage)
			matched := 0
			for cursor.Next() {
				matched++
				if tt.name == "Unrelated" && cursor.Entity() != loose {
					t.Errorf("Unrelated query matched %v", cursor.Entity())
				}
			}
			if matched != tt.want {
				t.Errorf("Matched %d entities, want %d", matched, tt.want)
			}
		})
	}
}

// Helper function for float comparisons
func almostEqual(a, b, epsilon float64) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff < epsilon
}
