package llm

// codeExample is a fixed snippet served by the canned matcher.
type codeExample struct {
	code     string
	language string
}

const (
	exampleReverseList  = "reverse linked list"
	exampleFibonacci    = "fibonacci"
	exampleBinarySearch = "binary search"
	exampleHello        = "hello"
)

var codeExamples = map[string]codeExample{
	exampleReverseList: {
		language: "python",
		code: `class ListNode:
    def __init__(self, val=0, next=None):
        self.val = val
        self.next = next

def reverse_linked_list(head: ListNode) -> ListNode:
    """
    Reverse a singly linked list iteratively.
    Time: O(n), Space: O(1)
    """
    prev = None
    current = head

    while current:
        next_node = current.next
        current.next = prev
        prev = current
        current = next_node

    return prev`,
	},
	exampleFibonacci: {
		language: "typescript",
		code: `function fibonacci(n: number): number {
  /**
   * Calculate fibonacci number using dynamic programming
   * Time: O(n), Space: O(1)
   */
  if (n <= 1) return n;

  let prev = 0, curr = 1;

  for (let i = 2; i <= n; i++) {
    const next = prev + curr;
    prev = curr;
    curr = next;
  }

  return curr;
}`,
	},
	exampleBinarySearch: {
		language: "rust",
		code: `fn binary_search<T: Ord>(arr: &[T], target: &T) -> Option<usize> {
    /**
     * Perform binary search on a sorted array
     * Time: O(log n), Space: O(1)
     */
    let mut left = 0;
    let mut right = arr.len();

    while left < right {
        let mid = left + (right - left) / 2;

        match arr[mid].cmp(target) {
            std::cmp::Ordering::Equal => return Some(mid),
            std::cmp::Ordering::Less => left = mid + 1,
            std::cmp::Ordering::Greater => right = mid,
        }
    }

    None
}`,
	},
	exampleHello: {
		language: "python",
		code: `# Welcome to Hexa ⟡
# Your AI coding companion

print('Hello, World! 💠')

# Try asking me to:
# - Write a Python function to reverse a linked list
# - Implement fibonacci in TypeScript
# - Create a binary search in Rust`,
	},
}

const welcomeText = "Hello! I'm Hexa ⟡ — your AI coding companion. Ready to debug reality?"

// taskPatterns is checked in order; the first keyword contained in the
// input wins.
var taskPatterns = []struct {
	keyword  string
	response string
}{
	{exampleReverseList, "Of course ⟡ Here's a clean, iterative solution for reversing a linked list:"},
	{exampleFibonacci, "Great choice ⟡ Here's an efficient O(n) implementation using dynamic programming:"},
	{exampleBinarySearch, "Perfect ⟡ Here's a robust binary search implementation in Rust:"},
	{exampleHello, welcomeText},
}

var codeKeywords = []string{
	"write", "create", "implement", "build", "function",
	"class", "code", "algorithm", "sort", "search",
}

const (
	genericCodeResponse = "I'd love to help you with that! ⟡ Here's a Python example to get you started:"
	fallbackResponse    = "I'm here to help you write code! ⟡ Try asking me to write a function or implement an algorithm, and I'll generate the code for you."
)
