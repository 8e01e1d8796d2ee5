package repository

// GraphQL documents for the content repository. Comment nodes live in the
// LIVE workspace as UGC under /sites/{site}/contents/ugc/blogs/...

const queryAllComments = `
query GetAllComments($lang: String!) {
    jcr(workspace: LIVE) {
        nodesByCriteria(criteria: {
            nodeType: "jsblognt:comment",
            language: $lang
        }) {
            nodes {
                uuid
                path
                workspace
                author: property(name: "author") {
                    value
                }
                comment: property(name: "comment") {
                    value
                }
                status: property(name: "status") {
                    value
                }
                approved: property(name: "approved") {
                    value
                }
                created: property(name: "jcr:created") {
                    value
                }
                authorEmail: property(name: "authorEmail") {
                    value
                }
                ipHash: property(name: "ipHash") {
                    value
                }
                ua: property(name: "ua") {
                    value
                }
            }
        }
    }
}`

const queryPostByID = `
query GetPostById($postId: String!, $lang: String!) {
    jcr(workspace: LIVE) {
        nodeById(uuid: $postId) {
            uuid
            workspace
            displayName(language: $lang)
        }
    }
}`

const mutationUpdateStatus = `
mutation UpdateCommentStatus($commentId: String!, $status: String!, $approved: String!) {
    jcr(workspace: LIVE) {
        mutateNode(pathOrId: $commentId) {
            status: mutateProperty(name: "status") {
                setValue(value: $status)
            }
            approved: mutateProperty(name: "approved") {
                setValue(value: $approved)
            }
        }
    }
}`

const mutationDeleteComment = `
mutation DeleteComment($commentId: String!) {
    jcr(workspace: LIVE) {
        deleteNode(pathOrId: $commentId)
    }
}`
