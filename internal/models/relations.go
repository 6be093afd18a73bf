package models

// Table names referenced by the deletion policy.
const (
	UsersTable    = "users"
	GroupsTable   = "blog_groups"
	PostsTable    = "posts"
	CommentsTable = "comments"
	FollowsTable  = "follows"
)

// OnDelete says what happens to a child row when its parent is deleted.
type OnDelete int

const (
	Cascade OnDelete = iota
	SetNull
)

func (o OnDelete) String() string {
	switch o {
	case Cascade:
		return "CASCADE"
	case SetNull:
		return "SET NULL"
	}
	return "UNKNOWN"
}

// Relation is one foreign key: Child.Column references Parent.id.
type Relation struct {
	Parent string
	Child  string
	Column string
	Policy OnDelete
}

// Relations is the schema's full set of foreign keys. The store walks it on
// every parent delete.
var Relations = []Relation{
	{Parent: UsersTable, Child: PostsTable, Column: "author_id", Policy: Cascade},
	{Parent: GroupsTable, Child: PostsTable, Column: "group_id", Policy: SetNull},
	{Parent: PostsTable, Child: CommentsTable, Column: "post_id", Policy: Cascade},
	{Parent: UsersTable, Child: CommentsTable, Column: "author_id", Policy: Cascade},
	{Parent: UsersTable, Child: FollowsTable, Column: "user_id", Policy: Cascade},
	{Parent: UsersTable, Child: FollowsTable, Column: "author_id", Policy: Cascade},
}

// RelationsOf returns the relations whose parent is table.
func RelationsOf(table string) []Relation {
	var out []Relation
	for _, r := range Relations {
		if r.Parent == table {
			out = append(out, r)
		}
	}
	return out
}
