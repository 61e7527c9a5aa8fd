// Command tagctl queries and maintains a media archive database from the
// command line.
//
// Usage:
//
//	tagctl [--db path] [--format auto|json|text] <command>
//
// Commands:
//
//	query [clause]...              List hashes matching a tag query
//	count [clause]...              Count hashes matching a tag query
//	suggest <term>                 Suggest tags for a partially typed term
//	parent add|remove <c> <p>      Manage parent implications
//	descendants <tag>              List every tag that implies a tag
//	sibling add|remove <n> <i>     Manage sibling aliases
//	resolve <tag>...               Show the ideal form of each tag
//	hash add <hex>                 Register a hash
//	hash move <id> <repository>    Move a hash between repositories
//	tag add|remove <id> <tag>...   Assign tags to a hash
//	tag list <id>                  List the tags of a hash
//	vacuum                         Rebuild the database file
//
// A query with no clauses matches every hash outside Trash.
// The database defaults to $DATABASE_DIR/archive.db. In auto format, output
// to a terminal is a text table and anything else is JSON.
package main
